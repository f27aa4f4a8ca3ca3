package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/duet/internal/calendar"
	"github.com/terraincognita07/duet/internal/db"
	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/partnercache"
	"github.com/terraincognita07/duet/internal/security"
	"github.com/terraincognita07/duet/internal/services"
	"github.com/zalando/go-keyring"
)

const (
	keyringService         = "duet-partner"
	installationKeyringKey = "installation-id"
	defaultSyncTimeout     = 15 * time.Second
	maxProjectionBytes     = 1 << 20
)

var (
	ErrInvalidCoupleCode = errors.New("couple code must look like DUET-XXXX-XXXX")
	ErrTokenRejected     = errors.New("server rejected the stored token")
	errGatedProjection   = errors.New("fertility view requires a premium entitlement")
)

type PartnerSyncOptions struct {
	ServerURL  string
	CoupleCode string
	CachePath  string
	Token      string
	HTTPClient *http.Client
	Stdin      *os.File
	Now        func() time.Time
}

// RunPartnerSyncCommand refreshes the partner's local copy of the couple's
// fertility calendar and prints the upcoming events. When the server cannot
// be reached the last cached calendar is printed instead.
func RunPartnerSyncCommand(ctx context.Context, opts PartnerSyncOptions, out io.Writer) error {
	code := security.NormalizeCoupleCode(opts.CoupleCode)
	if code == "" {
		return ErrInvalidCoupleCode
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	token, err := resolvePartnerToken(code, opts.Token, opts.Stdin, out)
	if err != nil {
		return err
	}
	installationID, err := installationID()
	if err != nil {
		return err
	}

	database, err := db.OpenPartnerCache(opts.CachePath)
	if err != nil {
		return fmt.Errorf("partner cache init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}
	cache := partnercache.New(db.NewPartnerCacheRepository(database))
	key := partnercache.Key(installationID, code)

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultSyncTimeout}
	}

	fetched, fetchErr := fetchCoupleProjection(ctx, client, opts.ServerURL, code, token)
	switch {
	case errors.Is(fetchErr, ErrTokenRejected):
		if opts.Token == "" {
			_ = keyring.Delete(keyringService, code)
		}
		return fetchErr
	case errors.Is(fetchErr, errGatedProjection):
		fmt.Fprintln(out, "Fertility details need a premium plan; showing the last shared calendar.")
	case fetchErr != nil:
		log.Printf("partner-sync: fetch failed, using cached calendar: %v", fetchErr)
	default:
		if _, err := cache.Update(ctx, key, fetched.Version, fetched.Projection); err != nil {
			return fmt.Errorf("update partner cache: %w", err)
		}
	}

	entry, err := cache.Read(ctx, key)
	if errors.Is(err, partnercache.ErrNotYetAvailable) {
		if fetchErr != nil && !errors.Is(fetchErr, errGatedProjection) {
			return fmt.Errorf("no cached calendar and fetch failed: %w", fetchErr)
		}
		fmt.Fprintln(out, "No fertility calendar available yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read partner cache: %w", err)
	}

	printUpcoming(out, entry, fertility.DateIn(now(), time.Local))
	return nil
}

func resolvePartnerToken(code string, explicit string, stdin *os.File, out io.Writer) (string, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, nil
	}

	token, err := keyring.Get(keyringService, code)
	if err == nil && strings.TrimSpace(token) != "" {
		return token, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("read token from keyring: %w", err)
	}

	fmt.Fprint(out, "Partner access token: ")
	token, err = readSecretNoEcho(stdin)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", errors.New("token is required")
	}
	if err := keyring.Set(keyringService, code, token); err != nil {
		log.Printf("partner-sync: store token in keyring failed: %v", err)
	}
	return token, nil
}

// installationID identifies this device in cache keys. It is created once
// and kept in the OS keyring.
func installationID() (string, error) {
	stored, err := keyring.Get(keyringService, installationKeyringKey)
	if err == nil && strings.TrimSpace(stored) != "" {
		return stored, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("read installation id: %w", err)
	}

	created := uuid.NewString()
	if err := keyring.Set(keyringService, installationKeyringKey, created); err != nil {
		return "", fmt.Errorf("store installation id: %w", err)
	}
	return created, nil
}

func fetchCoupleProjection(ctx context.Context, client *http.Client, serverURL string, code string, token string) (services.VisibleProjection, error) {
	base, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return services.VisibleProjection{}, fmt.Errorf("invalid server url %q", serverURL)
	}
	endpoint := base.JoinPath("api", "fertility", "couple", code)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.VisibleProjection{}, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return services.VisibleProjection{}, fmt.Errorf("request projection: %w", err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		return services.VisibleProjection{}, ErrTokenRejected
	case response.StatusCode != http.StatusOK:
		return services.VisibleProjection{}, fmt.Errorf("server returned %s", response.Status)
	}

	var projection services.VisibleProjection
	if err := json.NewDecoder(io.LimitReader(response.Body, maxProjectionBytes)).Decode(&projection); err != nil {
		return services.VisibleProjection{}, fmt.Errorf("decode projection: %w", err)
	}
	if projection.Gated || !projection.Visible {
		return services.VisibleProjection{}, errGatedProjection
	}
	return projection, nil
}

func printUpcoming(out io.Writer, entry partnercache.Entry, today fertility.Date) {
	fmt.Fprintf(out, "Calendar version %d, synced %s\n", entry.Version, entry.CachedAt.Local().Format("2006-01-02 15:04"))
	for _, event := range calendar.Events(entry.Projection) {
		if event.End.Before(today) {
			continue
		}
		if event.Start.Equal(event.End) {
			fmt.Fprintf(out, "%-10s %s\n", event.Kind, event.Start)
			continue
		}
		fmt.Fprintf(out, "%-10s %s .. %s\n", event.Kind, event.Start, event.End)
	}
}
