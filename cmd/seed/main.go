// seed inserts a demo account's templates, variants, and schedules into the
// local dev database so the scheduler has something to fire.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/infrastructure/postgres"
)

// seedAccountID is a fixed account ID for local dev seeding.
const seedAccountID = "acct_seed_dev_local"

type variantSpec struct {
	text   string
	weight float64
}

type templateSpec struct {
	name     string
	variants []variantSpec
}

var templates = []templateSpec{
	{
		name: "morning-standup-prompt",
		variants: []variantSpec{
			{"What's one thing you're shipping today?", 1},
			{"Standup time — what's blocking you?", 1},
			{"Good morning! Drop your top priority for today below.", 1},
		},
	},
	{
		name: "weekly-changelog-teaser",
		variants: []variantSpec{
			{"This week's changelog is live. New in this release: faster cold starts.", 2},
			{"Changelog's out — we fixed the bug everyone was asking about.", 1},
		},
	},
}

type scheduleSpec struct {
	templateIdx     int
	postBound       bool
	name            string
	kind            domain.Kind
	spec            string
	timezone        string
	selectionPolicy domain.SelectionPolicy
	noRepeatWindow  int
	noRepeatScope   domain.NoRepeatScope
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	templateRepo := postgres.NewTemplateRepository(pool)
	variantRepo := postgres.NewVariantRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool, logger, 5)
	postRepo := postgres.NewPostRepository(pool)

	now := time.Now()

	var createdTemplateIDs []string
	for _, ts := range templates {
		t, err := templateRepo.Create(ctx, &domain.PostTemplate{
			AccountID: seedAccountID,
			Name:      ts.name,
			Active:    true,
		})
		if err != nil {
			log.Fatalf("create template %s: %v", ts.name, err)
		}
		createdTemplateIDs = append(createdTemplateIDs, t.ID)

		for _, vs := range ts.variants {
			if _, err := variantRepo.Create(ctx, &domain.PostVariant{
				TemplateID: t.ID,
				Text:       vs.text,
				Weight:     vs.weight,
				Active:     true,
			}); err != nil {
				log.Fatalf("create variant for %s: %v", ts.name, err)
			}
		}
	}

	launchPost, err := postRepo.Create(ctx, &domain.Post{
		AccountID: seedAccountID,
		Text:      "We just shipped post-bound schedules. Bind a schedule straight to a post, no template required.",
	})
	if err != nil {
		log.Fatalf("create post: %v", err)
	}

	schedules := []scheduleSpec{
		{
			templateIdx:     0,
			name:            "standup-weekdays-9am",
			kind:            domain.KindCron,
			spec:            "0 9 * * 1-5",
			timezone:        "America/New_York",
			selectionPolicy: domain.PolicyRoundRobin,
		},
		{
			templateIdx:     1,
			name:            "changelog-every-monday",
			kind:            domain.KindRRule,
			spec:            "FREQ=WEEKLY;BYDAY=MO;BYHOUR=10;BYMINUTE=0;BYSECOND=0",
			timezone:        "UTC",
			selectionPolicy: domain.PolicyNoRepeatWindow,
			noRepeatWindow:  3,
			noRepeatScope:   domain.ScopeTemplate,
		},
		{
			templateIdx:     0,
			name:            "one-off-launch-announcement",
			kind:            domain.KindOneShot,
			spec:            now.Add(2 * time.Minute).UTC().Format(time.RFC3339),
			timezone:        "UTC",
			selectionPolicy: domain.PolicyRandomWeighted,
		},
		{
			postBound: true,
			name:      "one-off-post-bound-launch",
			kind:      domain.KindOneShot,
			spec:      now.Add(3 * time.Minute).UTC().Format(time.RFC3339),
			timezone:  "UTC",
		},
	}

	var createdScheduleIDs []string
	for _, ss := range schedules {
		sched := &domain.Schedule{
			AccountID:       seedAccountID,
			Name:            ss.name,
			Kind:            ss.kind,
			Spec:            ss.spec,
			Timezone:        ss.timezone,
			SelectionPolicy: ss.selectionPolicy,
			NoRepeatWindow:  ss.noRepeatWindow,
			NoRepeatScope:   ss.noRepeatScope,
			NextRunAt:       now,
		}
		if ss.postBound {
			sched.PostID = launchPost.ID
		} else {
			sched.TemplateID = createdTemplateIDs[ss.templateIdx]
		}

		s, err := scheduleRepo.Create(ctx, sched)
		if err != nil {
			log.Fatalf("create schedule %s: %v", ss.name, err)
		}
		createdScheduleIDs = append(createdScheduleIDs, s.ID)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Account ID:   %s\n", seedAccountID)
	fmt.Printf("  Templates:    %d\n", len(createdTemplateIDs))
	fmt.Printf("  Schedules:    %d\n", len(createdScheduleIDs))
	fmt.Println()
	fmt.Println("  Schedule IDs:")
	for i, id := range createdScheduleIDs {
		fmt.Printf("    %s  (%s)\n", id, schedules[i].name)
	}
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 — log in as the operator to get a JWT:")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:8080/auth/login \\")
	fmt.Println("      -d '{\"email\":\"<OPERATOR_EMAIL>\",\"password\":\"<OPERATOR_PASS>\"}'")
	fmt.Println()
	fmt.Println("  Step 2 — list jobs for a schedule once the scheduler binary is running:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Printf("    curl -s http://localhost:8080/schedules/%s/jobs -H \"Authorization: Bearer $JWT\"\n", lastOrPlaceholder(createdScheduleIDs))
	fmt.Println()
	fmt.Println("  \"one-off-launch-announcement\" fires ~2 minutes after this command runs.")
}

func lastOrPlaceholder(ss []string) string {
	if len(ss) == 0 {
		return "SCHEDULE_ID"
	}
	return ss[len(ss)-1]
}
