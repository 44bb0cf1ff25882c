package notification

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autobrr/autobrr/pkg/errors"
	"github.com/autobrr/autobrr/pkg/sharedhttp"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/tbsync/pkg/config"
)

type DiscordMessage struct {
	Content interface{}    `json:"content"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedColors int

const (
	LIGHT_BLUE EmbedColors = 0x58b9ff
	RED        EmbedColors = 0xed4245
	GREEN      EmbedColors = 0x57f287
	GRAY       EmbedColors = 0x99aab5
)

type discordSender struct {
	log    *logrus.Entry
	config config.NotificationsConfig

	httpClient *http.Client
}

func NewDiscordSender(log *logrus.Entry, config config.NotificationsConfig) Sender {
	return &discordSender{
		log:    log.WithField("sender", "discord"),
		config: config,
		httpClient: &http.Client{
			Timeout:   time.Second * 30,
			Transport: sharedhttp.Transport,
		},
	}
}

func (d *discordSender) Name() string {
	return "discord"
}

func (d *discordSender) CanSend() bool {
	return d.config.Service.Discord != ""
}

func (d *discordSender) Send(ctx context.Context, summary Summary) error {
	// nothing was added, and the config asks to stay quiet in that case
	if summary.Added == 0 && d.config.SkipEmptyRun {
		d.log.Debug("Skipping notification for empty run")
		return nil
	}

	title := summary.Title
	if summary.DryRun {
		title = title + " (Dry Run)"
	}

	msg := DiscordMessage{
		Content: nil,
		Embeds:  []DiscordEmbed{d.buildEmbed(title, summary)},
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "could not marshal json request")
	}

	if err := d.sendRequest(ctx, jsonData); err != nil {
		return errors.Wrap(err, "failed to send message to Discord")
	}

	return nil
}

func (d *discordSender) buildEmbed(title string, summary Summary) DiscordEmbed {
	color := GREEN
	switch {
	case summary.Failed() > 0:
		color = RED
	case summary.Added == 0:
		color = GRAY
	}

	embed := DiscordEmbed{
		Title: title,
		Description: fmt.Sprintf("Added %s of %s magnet links",
			humanize.Comma(int64(summary.Added)), humanize.Comma(int64(summary.Processed))),
		Color: int(color),
		Footer: DiscordEmbedsFooter{
			Text: d.buildFooter(summary.RunTime.Truncate(time.Millisecond).String()),
		},
		Timestamp: time.Now(),
	}

	if d.config.Detailed {
		embed.Fields = []DiscordEmbedsField{
			{Name: "Processed", Value: humanize.Comma(int64(summary.Processed)), Inline: true},
			{Name: "Added", Value: humanize.Comma(int64(summary.Added)), Inline: true},
			{Name: "Already Present", Value: humanize.Comma(int64(summary.Skipped())), Inline: true},
			{Name: "Failed", Value: humanize.Comma(int64(summary.Failed())), Inline: true},
		}
		if summary.Filtered > 0 {
			embed.Fields = append(embed.Fields, DiscordEmbedsField{
				Name:   "Filtered",
				Value:  humanize.Comma(int64(summary.Filtered)),
				Inline: true,
			})
		}
	}

	return embed
}

func (d *discordSender) sendRequest(ctx context.Context, jsonData []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.Service.Discord, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	d.log.Tracef("Discord response status: %d", res.StatusCode)

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, readErr := io.ReadAll(bufio.NewReader(res.Body))
		if readErr != nil {
			return errors.Wrap(readErr, "could not read body")
		}

		return errors.New("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	d.log.Debug("Notification successfully sent to discord")
	return nil
}

func (d *discordSender) buildFooter(runTime string) string {
	return fmt.Sprintf("Run time: %s", runTime)
}
