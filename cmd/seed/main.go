package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/coursetrack-backend/internal/app"
	"github.com/yungbote/coursetrack-backend/internal/data/repos"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/seed"
)

func main() {
	var file string
	var tokenTTL time.Duration
	var noTokens bool
	flag.StringVar(&file, "file", "seed.yaml", "fixture file (users, courses, sections, lessons)")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed dev tokens")
	flag.BoolVar(&noTokens, "no-tokens", false, "skip printing dev tokens")
	flag.Parse()

	f, err := os.Open(file)
	if err != nil {
		fmt.Printf("open fixture: %v\n", err)
		os.Exit(1)
	}
	fixture, err := seed.Load(f)
	_ = f.Close()
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(ctx, ".")
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	db := application.PG.DB()
	seeder := seed.NewSeeder(db, application.Log, repos.NewContentRepo(db, application.Log), application.Repos.User)
	res, err := seeder.Apply(dbctx.New(ctx), fixture)
	if err != nil {
		fmt.Printf("apply fixture: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	fmt.Printf("seeded users=%d courses=%d sections=%d lessons=%d assignments=%d\n",
		len(res.Users), res.Courses, res.Sections, res.Lessons, res.Assignments)

	if noTokens {
		return
	}
	for _, u := range res.Users {
		tok, err := application.Services.Auth.IssueToken(u, tokenTTL)
		if err != nil {
			fmt.Printf("issue token for %s: %v\n", u.Email, err)
			continue
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", u.Email, u.Role, u.ID, tok)
	}
}
