package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"e7-casework/bootstrap"
	"e7-casework/casework"
	"e7-casework/config"
	"e7-casework/lifecycle"
	"e7-casework/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Unable to create logger: %v", err)
	}
	logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	store, closeStore, err := bootstrap.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Unable to open store: %v", err)
	}
	defer closeStore()

	c, err := bootstrap.DialTemporal(cfg, logger)
	if err != nil {
		log.Fatalf("Unable to create Temporal client: %v", err)
	}
	defer c.Close()

	notifier := lifecycle.NewNotifier(c, logger)
	svc := bootstrap.NewService(cfg, store, notifier, logger)
	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	fmt.Println()
	fmt.Println("🚀 Registering a new E-7 case")
	created, err := svc.CreateCase(ctx, casework.NewCase{
		ForeignerName: prompt(reader, "   Foreign worker name: ", "Tran Minh"),
		CompanyName:   prompt(reader, "   Company name: ", "Hanbit Robotics"),
	})
	if err != nil {
		log.Fatalf("Unable to create case: %v", err)
	}
	caseID := created.ID
	fmt.Printf("   CaseID:     %s\n", caseID)
	showLinks(ctx, svc, caseID)

	for {
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println("  E-7 Casework CLI")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()
		fmt.Println("  [1] Show upload links")
		fmt.Println("  [2] Show case progress")
		fmt.Println("  [3] Query lifecycle workflow")
		fmt.Println("  [4] Complete case (must be ready)")
		fmt.Println("  [5] Exit (the lifecycle keeps running)")
		fmt.Println()
		fmt.Print("Choose: ")

		choice, _ := reader.ReadString('\n')
		switch strings.TrimSpace(choice) {
		case "1":
			showLinks(ctx, svc, caseID)
		case "2":
			showProgress(ctx, svc, caseID)
		case "3":
			showLifecycle(ctx, notifier, caseID)
		case "4":
			done, err := svc.Complete(ctx, caseID)
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				continue
			}
			fmt.Printf("🏁 Case %s, packaging started\n", done.Status)
		case "5":
			fmt.Println()
			fmt.Println("👋 Exiting CLI. The case lifecycle continues running in Temporal.")
			fmt.Println("   View it at http://localhost:8233")
			return
		default:
			fmt.Println("❌ Invalid choice. Please enter 1 to 5.")
		}
	}
}

func prompt(reader *bufio.Reader, label, fallback string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return fallback
}

func showLinks(ctx context.Context, svc *casework.Service, caseID string) {
	links, err := svc.UploadLinks(ctx, caseID)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("   Foreigner:  %s\n", links.Foreigner)
	fmt.Printf("   Company:    %s\n", links.Company)
}

func showProgress(ctx context.Context, svc *casework.Service, caseID string) {
	o, err := svc.Overview(ctx, caseID)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("\n📋 Status: %s, %d%% (%s)\n", o.Status, o.Progress, o.StepProgress)
	for role, reqs := range o.Requirements {
		fmt.Printf("   %s:\n", role)
		for _, r := range reqs {
			fmt.Printf("     %-28s %s\n", r.ID, r.ReviewStatus)
		}
	}
}

func showLifecycle(ctx context.Context, n *lifecycle.Notifier, caseID string) {
	st, err := n.Status(ctx, caseID)
	if err != nil {
		fmt.Printf("❌ Query failed: %v\n", err)
		return
	}
	fmt.Printf("\n📋 Phase: %s (foreigner submitted: %t, company submitted: %t, reminders: %d, notices: %d)\n",
		st.Phase, st.ForeignerSubmitted, st.CompanySubmitted, st.RemindersSent, st.NoticesSent)
}
