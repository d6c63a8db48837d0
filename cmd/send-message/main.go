package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/procampo/whatsapp-bridge/internal/conf"
	"github.com/procampo/whatsapp-bridge/internal/data"
	"github.com/procampo/whatsapp-bridge/pkg/logger"
)

// send-message delivers one text through the Cloud API, falling back to the
// notification template when the recipient is outside the 24h window.
// Useful to check credentials and the template before going live.
func main() {
	godotenv.Load()
	cfg := conf.LoadFromEnv()

	if cfg.WhatsApp.Token == "" || cfg.WhatsApp.PhoneNumberID == "" {
		fmt.Println("Error: WHATSAPP_TOKEN and PHONE_NUMBER_ID must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <to> <message>")
		fmt.Println("       <to> may be \"admin\" to use ADMIN_PHONE")
		os.Exit(1)
	}

	to := strings.TrimPrefix(os.Args[1], "+")
	if to == "admin" {
		to = cfg.Agent.Phone
	}
	message := strings.Join(os.Args[2:], " ")

	messenger := data.NewWhatsAppRepo(data.WhatsAppOptions{
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIVersion:    cfg.WhatsApp.APIVersion,
		BaseURL:       cfg.WhatsApp.BaseURL,
		SendRPS:       cfg.WhatsApp.SendRPS,
	}, logger.New(cfg.Env))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := messenger.SendText(ctx, to, message)
	if data.IsWindowError(err) && cfg.Agent.TemplateName != "" {
		fmt.Printf("Outside the messaging window, retrying with template %s\n", cfg.Agent.TemplateName)
		err = messenger.SendTemplate(ctx, to, cfg.Agent.TemplateName, cfg.Agent.TemplateLang, []string{"-", "-", "-", message})
	}
	if err != nil {
		var apiErr *data.APIError
		if errors.As(err, &apiErr) {
			fmt.Printf("Error: %s (trace %s)\n", apiErr.Message, apiErr.TraceID)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println("Message sent successfully!")
}
