// Viewer dumps the persisted chat data as tables, for poking at a data
// directory without starting the server.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"chat-hub/domain"
	"chat-hub/repositories"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	defaultDir := os.Getenv("DATA_DIR")
	if defaultDir == "" {
		defaultDir = "data"
	}
	dataDir := flag.String("data", defaultDir, "Path to the data directory")
	showGroups := flag.Bool("groups", false, "Show the group directory instead of messages")
	flag.Parse()

	logger := slog.Default()
	media, err := repositories.NewMediaStore(*dataDir, logger)
	if err != nil {
		log.Fatalf("Error opening media store: %v", err)
	}

	if *showGroups {
		groups, err := repositories.NewGroupRepository(*dataDir, logger)
		if err != nil {
			log.Fatalf("Error reading group directory: %v", err)
		}
		printGroups(groups.All())
		return
	}

	messages, err := repositories.NewMessageRepository(*dataDir, media, logger)
	if err != nil {
		log.Fatalf("Error reading message log: %v", err)
	}
	printMessages(messages.All())
}

func printMessages(messages []domain.Message) {
	table := newTable([]string{"Time", "From", "To", "Type", "Kind", "Content"})
	for _, msg := range messages {
		content := msg.Text
		if msg.Kind == domain.KindAudio {
			content = fmt.Sprintf("<%s, %d bytes encoded>", msg.MediaMime, len(msg.MediaRef))
		}
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		table.Append([]string{
			time.UnixMilli(msg.SentAt).Format(time.RFC822),
			msg.FromName,
			msg.ToID,
			string(msg.ToType),
			string(msg.Kind),
			content,
		})
	}
	table.Render()
}

func printGroups(groups []domain.Group) {
	table := newTable([]string{"ID", "Name", "Members"})
	for _, group := range groups {
		table.Append([]string{group.ID, group.Name, strings.Join(group.Members, ", ")})
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
