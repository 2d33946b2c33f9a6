package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cnap-oss/mybots/internal/common"
	"github.com/cnap-oss/mybots/internal/storage"
	"github.com/spf13/cobra"
)

func buildSlotsCommands(a *app) *cobra.Command {
	slotsCmd := &cobra.Command{
		Use:   "slots",
		Short: "역할 슬롯 관리 명령어",
		Long:  "meow!pretty 명령이 기록한 사용자별 역할 슬롯을 조회하고 정리합니다.",
	}

	// slots list
	slotsListCmd := &cobra.Command{
		Use:   "list [user-id]",
		Short: "역할 슬롯 목록 조회",
		Long:  "저장된 모든 역할 슬롯 또는 특정 사용자의 슬롯을 조회합니다.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := ""
			if len(args) == 1 {
				userID = args[0]
			}
			return a.runSlotsList(userID)
		},
	}

	// slots delete
	var yes bool
	slotsDeleteCmd := &cobra.Command{
		Use:   "delete <user-id> <slot>",
		Short: "역할 슬롯 기록 삭제",
		Long:  "저장소에서 사용자의 슬롯 기록만 삭제합니다. Discord 역할은 건드리지 않습니다.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSlotsDelete(args[0], args[1], yes)
		},
	}
	slotsDeleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "확인 없이 삭제")

	// slots migrate
	var from string
	slotsMigrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "JSON 역할 캐시를 데이터베이스로 복사",
		Long:  "roleCache.json 파일의 모든 슬롯을 설정된 데이터베이스(storage.dsn)로 upsert 합니다.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSlotsMigrate(from)
		},
	}
	slotsMigrateCmd.Flags().StringVar(&from, "from", "", "원본 JSON 파일 (기본값: storage.roleCachePath)")

	slotsCmd.AddCommand(slotsListCmd)
	slotsCmd.AddCommand(slotsDeleteCmd)
	slotsCmd.AddCommand(slotsMigrateCmd)

	return slotsCmd
}

func (a *app) runSlotsList(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	store, cleanup, err := initStore(a.logger, a.cfg)
	if err != nil {
		return fmt.Errorf("저장소 초기화 실패: %w", err)
	}
	defer cleanup()

	doc, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("슬롯 목록 조회 실패: %w", err)
	}

	if n := printSlots(os.Stdout, doc, userID); n == 0 {
		fmt.Println("등록된 역할 슬롯이 없습니다.")
	}
	return nil
}

// printSlots는 문서를 사용자/슬롯 순으로 정렬해 테이블로 출력하고 출력한 행 수를 반환합니다.
// userID가 비어 있지 않으면 해당 사용자만 출력합니다.
func printSlots(out io.Writer, doc storage.Document, userID string) int {
	users := make([]string, 0, len(doc))
	for u := range doc {
		if userID == "" || u == userID {
			users = append(users, u)
		}
	}
	if len(users) == 0 {
		return 0
	}
	sort.Strings(users)

	// 테이블 형식 출력
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "USER\tSLOT\tROLE")
	_, _ = fmt.Fprintln(w, "----\t----\t----")

	rows := 0
	for _, u := range users {
		for _, slot := range storage.SortedSlots(doc[u]) {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", u, slot, doc[u][slot])
			rows++
		}
	}
	_ = w.Flush()

	return rows
}

func (a *app) runSlotsDelete(userID, rawSlot string, yes bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	slot, err := strconv.Atoi(rawSlot)
	if err != nil || slot < 1 {
		return fmt.Errorf("슬롯 번호는 1 이상의 정수여야 합니다: %q", rawSlot)
	}

	store, cleanup, err := initStore(a.logger, a.cfg)
	if err != nil {
		return fmt.Errorf("저장소 초기화 실패: %w", err)
	}
	defer cleanup()

	roleID, ok, err := store.Get(ctx, userID, slot)
	if err != nil {
		return fmt.Errorf("슬롯 조회 실패: %w", err)
	}
	if !ok {
		fmt.Printf("사용자 %s의 %d번 슬롯이 없습니다.\n", userID, slot)
		return nil
	}

	if !yes {
		// 확인 메시지
		fmt.Printf("사용자 %s의 %d번 슬롯(역할 %s)을 삭제하시겠습니까? (y/N): ", userID, slot, roleID)
		reader := bufio.NewReader(os.Stdin)
		confirm, _ := reader.ReadString('\n')
		confirm = strings.TrimSpace(strings.ToLower(confirm))

		if confirm != "y" && confirm != "yes" {
			fmt.Println("취소되었습니다.")
			return nil
		}
	}

	if err := store.Delete(ctx, userID, slot); err != nil {
		return fmt.Errorf("슬롯 삭제 실패: %w", err)
	}
	if err := store.Save(ctx); err != nil {
		return fmt.Errorf("저장 실패: %w", err)
	}

	fmt.Printf("✓ 사용자 %s의 %d번 슬롯 삭제 완료\n", userID, slot)
	return nil
}

func (a *app) runSlotsMigrate(from string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if from == "" {
		from = common.GetRoleCachePath(a.cfg)
	}

	fileStore, err := storage.OpenFileStore(from)
	if err != nil {
		return fmt.Errorf("역할 캐시 읽기 실패: %w", err)
	}
	doc, err := fileStore.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("역할 캐시 읽기 실패: %w", err)
	}
	for _, entry := range fileStore.Skipped() {
		fmt.Printf("⚠ 슬롯 번호가 잘못된 항목을 건너뜁니다: %s\n", entry)
	}

	repo, cleanup, err := initRepository(a.logger, a.cfg)
	if err != nil {
		return fmt.Errorf("데이터베이스 초기화 실패: %w", err)
	}
	defer cleanup()

	count, err := repo.ImportDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("마이그레이션 실패: %w", err)
	}

	fmt.Printf("✓ %s → %s: %d개 슬롯 복사 완료\n", from, common.GetDatabaseDSN(a.cfg), count)
	return nil
}
