package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/needsclan/Gk1/internal/config"
	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/logger"
	"github.com/needsclan/Gk1/internal/repository"
	"github.com/needsclan/Gk1/internal/service"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

type demoPeer struct {
	id       domain.ParticipantID
	username string
	headline string
}

var peers = []demoPeer{
	{"u-alice", "Alice Johnson", "Product designer"},
	{"u-bob", "", "Backend engineer at a fintech"},
	{"u-charlie", "Charlie Brown", ""},
	{"u-diana", "Diana Prince", "Head of people"},
	{"u-eve", "", ""},
	{"u-frank", "Frank Miller", "Freelance illustrator"},
	{"u-grace", "Grace Lee", "Data scientist"},
}

var sampleTexts = []string{
	"Hey! How are you doing?",
	"Just checking in 😊",
	"Can we meet tomorrow?",
	"Thanks for your help!",
	"That sounds great!",
	"Let me know when you're free",
	"Perfect! I'll be there",
	"What time works for you?",
	"I'll send it over shortly",
	"Looking forward to it!",
	"Let's catch up soon",
	"Can you send me that file?",
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger.Init(cfg.LogLevel)
	log := logger.Module("seed")

	me := domain.ParticipantID(cfg.Participant)
	if me == "" {
		me = "u-me"
	}

	store, err := repository.Open(cfg.Backend, cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	svc := service.New(store, logger.Module("service"))
	defer svc.Sessions.CloseAll()

	if err := seed(context.Background(), store, svc, me); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	fmt.Printf("Seeded %d conversations for %s\n", len(peers), me)
	fmt.Printf("Database location: %s (%s)\n", cfg.DatabasePath, cfg.Backend)
}

func seed(ctx context.Context, store *repository.Store, svc *service.Services, me domain.ParticipantID) error {
	if err := store.Profiles.Upsert(ctx, &domain.Profile{ParticipantID: me, Username: "Me"}); err != nil {
		return err
	}

	for i, p := range peers {
		if err := store.Profiles.Upsert(ctx, &domain.Profile{ParticipantID: p.id, Username: p.username, Headline: p.headline}); err != nil {
			return fmt.Errorf("failed to create profile %s: %w", p.id, err)
		}
		if _, err := svc.Contacts.CreateContact(ctx, me, p.id, "", ""); err != nil {
			return fmt.Errorf("failed to create contact %s: %w", p.id, err)
		}

		// The last contact stays without messages.
		if i == len(peers)-1 {
			continue
		}

		mine, err := svc.Conversations.Enter(ctx, me, p.id)
		if err != nil {
			return err
		}
		theirs, err := svc.Conversations.Enter(ctx, p.id, me)
		if err != nil {
			mine.Close()
			return err
		}

		numMessages := 3 + rand.Intn(6)
		for n := 0; n < numMessages; n++ {
			sender := mine
			if rand.Float32() < 0.5 {
				sender = theirs
			}
			text := sampleTexts[rand.Intn(len(sampleTexts))]
			if _, err := sender.Send(ctx, text); err != nil && !appErrors.IsCode(err, appErrors.CodePartialSync) {
				mine.Close()
				theirs.Close()
				return fmt.Errorf("failed to send in %s: %w", mine.ConversationID(), err)
			}
		}

		mine.Close()
		theirs.Close()
		fmt.Printf("  %s: %d messages\n", mine.ConversationID(), numMessages)
	}
	return nil
}
