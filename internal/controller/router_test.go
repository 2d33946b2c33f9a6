package controller_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cnap-oss/mybots/internal/controller"
	"github.com/cnap-oss/mybots/internal/storage"
	"github.com/cnap-oss/mybots/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testGuildID   = "guild-1"
	testChannelID = "chan-1"
	testOwnerID   = "556682219171741706"
	testUserID    = "user-7"
	testVanity    = "🅥🅐🅝🅘🅣🅨 🅡🅞🅛🅔🅢"
	testVanityID  = "vanity"
)

type routerFixture struct {
	router   *controller.Router
	platform *mocks.MockPlatform
	store    *mocks.MockStore
}

func newRouterFixture(t *testing.T, doc storage.Document, withVanity bool) *routerFixture {
	t.Helper()

	p := mocks.NewMockPlatform()
	p.AddRole(testGuildID, controller.Role{ID: testGuildID, Name: "@everyone", Position: 0})
	if withVanity {
		p.AddRole(testGuildID, controller.Role{ID: testVanityID, Name: testVanity, Position: 1})
	}
	s := mocks.NewMockStore(doc)

	r := controller.NewRouter(zaptest.NewLogger(t), p, s, controller.Options{
		Prefix:           "meow!",
		AuthorizedUserID: testOwnerID,
		VanityRoleName:   testVanity,
	})
	return &routerFixture{router: r, platform: p, store: s}
}

func (f *routerFixture) dispatch(author, content string) *controller.Outcome {
	return f.router.Dispatch(context.Background(), &controller.Message{
		ID:        "m-1",
		ChannelID: testChannelID,
		GuildID:   testGuildID,
		Content:   content,
		AuthorID:  author,
	})
}

func (f *routerFixture) lastSent(t *testing.T) string {
	t.Helper()
	sent := f.platform.SentContents(testChannelID)
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func TestRouterParse_Priority(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	tests := []struct {
		content  string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{content: "meow!help pretty", wantName: "help", wantArgs: []string{"pretty"}, wantOK: true},
		{content: "meow!obliterate", wantName: "obliterate", wantArgs: []string{}, wantOK: true},
		{content: "meow!disintigrate 5", wantName: "disintigrate", wantArgs: []string{"5"}, wantOK: true},
		{content: "meow!pretty delete 2", wantName: "pretty delete", wantArgs: []string{"2"}, wantOK: true},
		{content: `meow!pretty "delete me" default`, wantName: "pretty", wantArgs: []string{"delete me", "default"}, wantOK: true},
		{content: `meow!pretty "Foo" #112233 3`, wantName: "pretty", wantArgs: []string{"Foo", "#112233", "3"}, wantOK: true},
		{content: "hello meow!help", wantOK: false},
		{content: "meow!unknown", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			cmd, ok := f.router.Parse(tt.content)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantName, cmd.Name)
			assert.Equal(t, tt.wantArgs, cmd.Args)
		})
	}
}

func TestDispatch_IgnoresBotsAndNonCommands(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	outcome := f.router.Dispatch(context.Background(), &controller.Message{
		ChannelID: testChannelID,
		GuildID:   testGuildID,
		Content:   "meow!help",
		AuthorID:  "bot",
		AuthorBot: true,
	})
	assert.Nil(t, outcome)

	assert.Nil(t, f.dispatch(testUserID, "just chatting"))
	assert.Nil(t, f.router.Dispatch(context.Background(), nil))

	assert.Empty(t, f.platform.Sent)
	assert.Equal(t, 0, f.platform.CallCount(""))
}

func TestHelp(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	outcome := f.dispatch(testUserID, "meow!help")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindNone, outcome.Kind)
	assert.Contains(t, outcome.Reply, "`meow!help pretty`")
	assert.NotContains(t, outcome.Reply, "# Help!")

	outcome = f.dispatch(testUserID, "meow!help PRETTY")
	require.NotNil(t, outcome)
	assert.Contains(t, outcome.Reply, "## Pretty Commands")

	assert.Len(t, f.platform.Sent, 2)
	assert.Equal(t, 0, f.platform.CallCount(""))
}

func TestPretty_CreatesRoleInDefaultSlot(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	outcome := f.dispatch(testUserID, `meow!pretty "Foo" default`)
	require.NotNil(t, outcome)
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Meow, your role has been created/updated! Meow, meow!", f.lastSent(t))

	assert.Equal(t, 1, f.platform.CallCount("CreateRole"))
	assert.Equal(t, 0, f.platform.CallCount("EditRole"))

	roleID, ok, err := f.store.Get(context.Background(), testUserID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	role := f.platform.FindRole(testGuildID, roleID)
	require.NotNil(t, role)
	assert.Equal(t, "Foo", role.Name)
	assert.Equal(t, 0, role.Color)

	vanity := f.platform.FindRole(testGuildID, testVanityID)
	assert.Equal(t, vanity.Position-1, role.Position)

	assert.Equal(t, "{\n  \""+testUserID+"\": {\n    \"1\": \""+roleID+"\"\n  }\n}", f.store.LastSaved())
}

func TestPretty_RerunUpdatesExistingRole(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Foo" default`).Err)
	firstID, _, _ := f.store.Get(context.Background(), testUserID, 1)

	outcome := f.dispatch(testUserID, `meow!pretty "Foo Bar" #112233`)
	require.NoError(t, outcome.Err)

	assert.Equal(t, 1, f.platform.CallCount("CreateRole"))
	assert.Equal(t, 1, f.platform.CallCount("EditRole"))

	secondID, _, _ := f.store.Get(context.Background(), testUserID, 1)
	assert.Equal(t, firstID, secondID)

	role := f.platform.FindRole(testGuildID, firstID)
	require.NotNil(t, role)
	assert.Equal(t, "Foo Bar", role.Name)
	assert.Equal(t, 0x112233, role.Color)
	assert.Len(t, f.platform.Roles[testGuildID], 3)

	// default로 되돌리면 색상이 지워짐
	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Foo Bar" default`).Err)
	assert.Equal(t, 0, f.platform.FindRole(testGuildID, firstID).Color)
}

func TestPretty_AdditionalSlot(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	require.NoError(t, f.dispatch(testUserID, `meow!pretty "One" default`).Err)
	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Two" #abcdef 2`).Err)

	slots, err := f.store.Slots(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.NotEqual(t, slots[1], slots[2])
	assert.Equal(t, "Two", f.platform.FindRole(testGuildID, slots[2]).Name)

	// 두 역할 모두 vanity 바로 아래에 있어야 하고, 마지막으로 옮긴 역할이 가장 가깝다
	vanity := f.platform.FindRole(testGuildID, testVanityID)
	assert.Equal(t, vanity.Position-1, f.platform.FindRole(testGuildID, slots[2]).Position)
}

func TestPretty_ValidationHappensBeforePlatformCalls(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reply   string
	}{
		{name: "named color", content: `meow!pretty "Foo" red`, reply: "Invalid hex color code"},
		{name: "short hex", content: `meow!pretty "Foo" #12345`, reply: "Invalid hex color code"},
		{name: "missing color", content: `meow!pretty "Foo"`, reply: "Please provide a role name"},
		{name: "no args", content: `meow!pretty`, reply: "Please provide a role name"},
		{name: "blank name", content: `meow!pretty " " default`, reply: "Please provide a role name"},
		{name: "zero slot", content: `meow!pretty "Foo" default 0`, reply: "role number"},
		{name: "word slot", content: `meow!pretty "Foo" default two`, reply: "role number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, nil, true)

			outcome := f.dispatch(testUserID, tt.content)
			require.NotNil(t, outcome)
			assert.Equal(t, controller.KindValidation, outcome.Kind)
			assert.Contains(t, f.lastSent(t), tt.reply)
			assert.Equal(t, 0, f.platform.CallCount(""))
			assert.Empty(t, f.store.Saved)
		})
	}
}

func TestPretty_MissingVanityRole(t *testing.T) {
	f := newRouterFixture(t, nil, false)

	outcome := f.dispatch(testUserID, `meow!pretty "Foo" default`)
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindNotFound, outcome.Kind)
	assert.Equal(t, `Could not find the "`+testVanity+`" role.`, f.lastSent(t))
	assert.Equal(t, 0, f.platform.CallCount("CreateRole"))
	assert.Empty(t, f.store.Saved)
}

func TestPretty_StaleStoredRoleIsRecreated(t *testing.T) {
	f := newRouterFixture(t, storage.Document{testUserID: {1: "deleted-role"}}, true)

	outcome := f.dispatch(testUserID, `meow!pretty "Foo" #000001`)
	require.NoError(t, outcome.Err)

	assert.Equal(t, 1, f.platform.CallCount("CreateRole"))
	roleID, _, _ := f.store.Get(context.Background(), testUserID, 1)
	assert.NotEqual(t, "deleted-role", roleID)
}

func TestPretty_RoleDeletedBeforeEditIsRecreated(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Foo" default`).Err)
	staleID, _, _ := f.store.Get(context.Background(), testUserID, 1)

	// 조회는 성공하지만 수정 시점에는 이미 사라진 역할
	f.platform.SetError("EditRole", controller.ErrRoleNotFound)

	outcome := f.dispatch(testUserID, `meow!pretty "Foo" #112233`)
	require.NotNil(t, outcome)
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Meow, your role has been created/updated! Meow, meow!", f.lastSent(t))

	assert.Equal(t, 1, f.platform.CallCount("EditRole"))
	assert.Equal(t, 2, f.platform.CallCount("CreateRole"))

	newID, ok, _ := f.store.Get(context.Background(), testUserID, 1)
	require.True(t, ok)
	assert.NotEqual(t, staleID, newID)
	assert.Equal(t, 0x112233, f.platform.FindRole(testGuildID, newID).Color)
}

func TestPretty_AuditReasons(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Foo" default`).Err)
	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Bar" default`).Err)

	assert.Equal(t, []string{"Role created by meow!pretty command"}, f.platform.Reasons["CreateRole"])
	assert.Equal(t, []string{"Role updated by meow!pretty command"}, f.platform.Reasons["EditRole"])
}

func TestPretty_PlatformFailure(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.SetError("CreateRole", errors.New("missing permissions"))

	outcome := f.dispatch(testUserID, `meow!pretty "Foo" default`)
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindPlatform, outcome.Kind)
	assert.Equal(t, "Grr, there was an error creating or updating the role!", f.lastSent(t))
	assert.Empty(t, f.store.Saved)
}

func TestPretty_SaveFailure(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.store.SaveErr = errors.New("disk full")

	outcome := f.dispatch(testUserID, `meow!pretty "Foo" default`)
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindStorage, outcome.Kind)
	assert.Equal(t, "Grr, there was an error creating or updating the role!", f.lastSent(t))
}

func TestRoleDelete_NothingToDelete(t *testing.T) {
	f := newRouterFixture(t, nil, true)

	outcome := f.dispatch(testUserID, "meow!pretty delete")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindNotFound, outcome.Kind)
	assert.Equal(t, "Mrow, you don’t have any roles to delete!", f.lastSent(t))
	assert.Equal(t, 0, f.platform.CallCount(""))
}

func TestRoleDelete_DefaultsToHighestSlot(t *testing.T) {
	f := newRouterFixture(t, storage.Document{testUserID: {1: "r1", 3: "r3"}}, true)
	f.platform.AddRole(testGuildID, controller.Role{ID: "r1", Name: "one", Position: 1})
	f.platform.AddRole(testGuildID, controller.Role{ID: "r3", Name: "three", Position: 1})

	outcome := f.dispatch(testUserID, "meow!pretty delete")
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Meow, the role has been deleted! Meow, meow!", f.lastSent(t))

	assert.Nil(t, f.platform.FindRole(testGuildID, "r3"))
	assert.NotNil(t, f.platform.FindRole(testGuildID, "r1"))

	slots, err := f.store.Slots(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "r1"}, slots)
	assert.Equal(t, "{\n  \""+testUserID+"\": {\n    \"1\": \"r1\"\n  }\n}", f.store.LastSaved())
}

func TestRoleDelete_ExplicitSlotAndLastSlotRemovesUser(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Foo" default`).Err)

	outcome := f.dispatch(testUserID, "meow!pretty delete 1")
	require.NoError(t, outcome.Err)

	doc, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, doc, testUserID)
	assert.Equal(t, "{}", f.store.LastSaved())
}

func TestRoleDelete_SlotWithoutRole(t *testing.T) {
	f := newRouterFixture(t, storage.Document{testUserID: {1: "r1"}}, true)

	outcome := f.dispatch(testUserID, "meow!pretty delete 4")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindNotFound, outcome.Kind)
	assert.Equal(t, "Mrow, no role to delete!", f.lastSent(t))
	assert.Equal(t, 0, f.platform.CallCount(""))
}

func TestRoleDelete_RoleMissingOnPlatform(t *testing.T) {
	f := newRouterFixture(t, storage.Document{testUserID: {1: "gone"}}, true)

	outcome := f.dispatch(testUserID, "meow!pretty delete")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindNotFound, outcome.Kind)
	assert.Equal(t, "Grr, couldn’t find the role to delete!", f.lastSent(t))
	assert.Equal(t, 0, f.platform.CallCount("DeleteRole"))

	roleID, ok, _ := f.store.Get(context.Background(), testUserID, 1)
	assert.True(t, ok)
	assert.Equal(t, "gone", roleID)
}

func TestRoleDelete_PlatformFailure(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	require.NoError(t, f.dispatch(testUserID, `meow!pretty "Foo" default`).Err)
	f.platform.SetError("DeleteRole", errors.New("forbidden"))

	outcome := f.dispatch(testUserID, "meow!pretty delete")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindPlatform, outcome.Kind)
	assert.Equal(t, "Grr, there was an error deleting the role!", f.lastSent(t))

	slots, _ := f.store.Slots(context.Background(), testUserID)
	assert.Len(t, slots, 1)
}

func TestDisintegrate_InvalidCounts(t *testing.T) {
	for _, content := range []string{"meow!disintigrate 0", "meow!disintigrate abc", "meow!disintigrate", "meow!disintigrate -3"} {
		t.Run(content, func(t *testing.T) {
			f := newRouterFixture(t, nil, true)
			f.platform.AddMessages(testChannelID, 5)

			outcome := f.dispatch(testOwnerID, content)
			require.NotNil(t, outcome)
			assert.Equal(t, controller.KindValidation, outcome.Kind)
			assert.Equal(t, "Mrow, how many messages do you want to delete? Specify a number, silly!", f.lastSent(t))
			assert.Equal(t, 0, f.platform.CallCount("BulkDelete"))
		})
	}
}

func TestDisintegrate_DeletesAndReportsCount(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.AddMessages(testChannelID, 5)

	outcome := f.dispatch(testOwnerID, "meow!disintigrate 3")
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Mrow, yeeted 3 messages into oblivion!", f.lastSent(t))
	assert.Equal(t, 2, f.platform.MessageCount(testChannelID))

	outcome = f.dispatch(testOwnerID, "meow!disintigrate 50")
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Mrow, yeeted 2 messages into oblivion!", f.lastSent(t))
}

func TestDisintegrate_Unauthorized(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.AddMessages(testChannelID, 5)

	outcome := f.dispatch(testUserID, "meow!disintigrate 3")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindUnauthorized, outcome.Kind)
	assert.Equal(t, "Grr, you’re not allowed to use this command!", f.lastSent(t))
	assert.Equal(t, 0, f.platform.CallCount(""))
	assert.Equal(t, 5, f.platform.MessageCount(testChannelID))
}

func TestDisintegrate_PlatformFailure(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.SetError("BulkDelete", errors.New("rate limited"))

	outcome := f.dispatch(testOwnerID, "meow!disintigrate 3")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindPlatform, outcome.Kind)
	assert.Equal(t, "Grr, there was an error trying to delete messages!", f.lastSent(t))
}

func TestObliterate_UnauthorizedIsSilent(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.AddMessages(testChannelID, 5)

	outcome := f.dispatch(testUserID, "meow!obliterate")
	require.NotNil(t, outcome)
	assert.Equal(t, controller.KindUnauthorized, outcome.Kind)
	assert.Empty(t, outcome.Reply)
	assert.Empty(t, f.platform.Sent)
	assert.Equal(t, 0, f.platform.CallCount(""))
	assert.Equal(t, 5, f.platform.MessageCount(testChannelID))
}

func TestObliterate_TwoPasses(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.AddMessages(testChannelID, 120)

	outcome := f.dispatch(testOwnerID, "meow!obliterate")
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Grr, yeeted all messages and threads in this channel! 😾", f.lastSent(t))

	assert.Equal(t, 1, f.platform.CallCount("ChannelMessages"))
	assert.Equal(t, 100, f.platform.CallCount("DeleteMessage"))
	assert.Equal(t, 1, f.platform.CallCount("BulkDelete"))
	assert.Equal(t, 0, f.platform.MessageCount(testChannelID))
}

func TestObliterate_IndividualFailuresAreBestEffort(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.AddMessages(testChannelID, 3)
	f.platform.SetError("DeleteMessage", errors.New("too old"))

	outcome := f.dispatch(testOwnerID, "meow!obliterate")
	require.NoError(t, outcome.Err)
	assert.Equal(t, 3, f.platform.CallCount("DeleteMessage"))
	assert.Equal(t, 1, f.platform.CallCount("BulkDelete"))
	assert.Equal(t, 0, f.platform.MessageCount(testChannelID))
}

func TestDispatch_SendFailureStillReturnsOutcome(t *testing.T) {
	f := newRouterFixture(t, nil, true)
	f.platform.SetError("SendMessage", errors.New("channel gone"))

	outcome := f.dispatch(testUserID, "meow!help")
	require.NotNil(t, outcome)
	assert.Equal(t, "help", outcome.Command)
	assert.NotEmpty(t, outcome.Reply)
}
