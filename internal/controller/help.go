package controller

import (
	"context"
	"strings"
)

const generalHelpTemplate = `
**Mrow! Here’s all the commands I can help you with:**
` + "`{p}help pretty`" + ` - Displays the guide for pretty commands.
` + "`{p}pretty \"role name\" <hexcode or \"default\">`" + ` - Create or update the original role with a name and color.
` + "`{p}pretty \"role name\" <hexcode> <role#>`" + ` - Create or update an additional role with the given number.
` + "`{p}pretty delete`" + ` - Delete the last created or updated role.
` + "`{p}obliterate`" + ` - Delete all messages and threads in the channel (restricted).
` + "`{p}disintigrate <number>`" + ` - Delete a number of messages (restricted).
`

const prettyHelpTemplate = `
# Help!
*Mrow! Here’s all the commands I can help you with:*
## Pretty Commands
` + "`{p}pretty \"role name\" <hexcode or \"default\"> <number>`" + ` - Create or update the original role with a name and color. Add a number for additional roles.
` + "`{p}pretty delete <number>`" + ` - Delete one of your roles. Without a number, deletes your highest numbered role.
## Utilities
` + "`{p}obliterate`" + ` - Delete every single message and thread in the current channel (admin only).
` + "`{p}disintigrate <number>`" + ` - Delete a number of messages (admin only).
`

// handleHelp은 일반 도움말 또는 첫 인자가 "pretty"이면 pretty 안내를 보냅니다.
func (r *Router) handleHelp(_ context.Context, _ *Message, args []string) (string, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "pretty") {
		return r.helpText(prettyHelpTemplate), nil
	}
	return r.helpText(generalHelpTemplate), nil
}

func (r *Router) helpText(tmpl string) string {
	return strings.ReplaceAll(tmpl, "{p}", r.opts.Prefix)
}
