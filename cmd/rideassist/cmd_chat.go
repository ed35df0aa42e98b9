// README: Interactive chat: login/register menu, then an assistant session per rider.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"rideassist/internal/assistant"
	"rideassist/internal/modules/profile"
	"rideassist/internal/types"
)

const mainMenu = `
Welcome to the ride assistant.
1. Login
2. Register
3. Exit`

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive rider session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			err = runChat(cmd.Context(), a, newTerminal(cmd.InOrStdin(), cmd.OutOrStdout()))
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		},
	}
}

func runChat(ctx context.Context, a *app, term *terminal) error {
	for {
		term.say(mainMenu)
		choice, err := term.Ask(ctx, "Choose an option: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			rider, err := login(ctx, a, term)
			if err != nil {
				return err
			}
			if rider == "" {
				continue
			}
			if err := runSession(ctx, a, term, rider); err != nil {
				return err
			}
		case "2":
			if err := register(ctx, a, term); err != nil {
				return err
			}
		case "3":
			term.say("Goodbye.")
			return nil
		default:
			term.say("Invalid choice, please enter 1, 2 or 3.")
		}
	}
}

// login returns "" when the credentials were rejected.
func login(ctx context.Context, a *app, term *terminal) (types.ID, error) {
	id, err := term.Ask(ctx, "Rider ID: ")
	if err != nil {
		return "", err
	}
	password, err := term.Ask(ctx, "Password: ")
	if err != nil {
		return "", err
	}
	r, err := a.profiles.Authenticate(ctx, types.ID(id), password)
	switch {
	case errors.Is(err, profile.ErrInvalidCredentials):
		term.say("Invalid rider ID or password.")
		return "", nil
	case err != nil:
		return "", err
	}
	term.say("Welcome back, %s.", r.ID)
	return r.ID, nil
}

func register(ctx context.Context, a *app, term *terminal) error {
	id, err := term.Ask(ctx, "Choose a rider ID (up to 10 characters): ")
	if err != nil {
		return err
	}
	password, err := term.Ask(ctx, "Choose a password (at least 8 characters): ")
	if err != nil {
		return err
	}
	rides, _, err := term.askInt(ctx, "Rides booked so far (blank for 0): ", true)
	if err != nil {
		return err
	}
	prior, _, err := term.askInt(ctx, "Rides cancelled so far (blank for 0): ", true)
	if err != nil {
		return err
	}

	_, err = a.profiles.RegisterRider(ctx, profile.RegisterRiderCommand{
		ID:                 types.ID(id),
		Password:           password,
		TotalRidesBooked:   rides,
		PriorCancellations: prior,
	})
	switch {
	case errors.Is(err, profile.ErrAlreadyExists):
		term.say("That rider ID is taken.")
	case errors.Is(err, profile.ErrBadRequest):
		term.say("Registration failed: %v", err)
	case err != nil:
		return err
	default:
		term.say("Registration successful. Please log in.")
	}
	return nil
}

func runSession(ctx context.Context, a *app, term *terminal, rider types.ID) error {
	s := assistant.NewSession(a.assistant, a.interpreter(term), rider)
	facts := promptFacts{term: term}
	menu := a.llm == nil
	if !menu {
		term.say("How can I help? You can book, cancel or list rides, ask a question, or log out.")
	}
	for {
		question := "You: "
		if menu {
			term.say("\n%s", assistant.MenuOptions)
			question = "Choose an option: "
		}
		text, err := term.Ask(ctx, question)
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		resp, err := s.Send(ctx, text, facts)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return err
			}
			slog.Error("assistant turn failed", "rider_id", rider, "error", err)
			term.say("Sorry, something went wrong. Please try again.")
			continue
		}
		term.say("%s", resp.Reply)
		if resp.Logout {
			return nil
		}
	}
}
