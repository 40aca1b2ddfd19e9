package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Build information, set with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const (
	githubRepo          = "oszuidwest/zwfm-varecorder"
	releaseURL          = "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	versionCheckTimeout = 30 * time.Second
)

// githubRelease represents a release with version and status information.
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// versionString returns the version line shown by --version.
func versionString() string {
	return fmt.Sprintf("varecorder %s (commit %s, built %s)", Version, Commit, BuildTime)
}

// latestRelease returns the tag of the latest published release at url.
// It returns an empty tag when no stable release exists.
func latestRelease(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, versionCheckTimeout, errors.New("github API request timeout"))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "zwfm-varecorder/"+Version)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // Best-effort cleanup; error doesn't affect caller
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("github API returned %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if release.Draft || release.Prerelease {
		return "", nil
	}
	return normalizeVersion(release.TagName), nil
}

// checkForUpdate logs when a newer release than the running build is available.
func checkForUpdate(ctx context.Context, url string) {
	current := normalizeVersion(Version)
	if current == "dev" || current == "unknown" {
		slog.Debug("skipping update check for development build")
		return
	}

	latest, err := latestRelease(ctx, url)
	if err != nil {
		slog.Debug("update check failed", "error", err)
		return
	}
	if latest != "" && isNewerVersion(latest, current) {
		slog.Info("a newer version is available", "current", current, "latest", latest)
	}
}

// normalizeVersion returns a normalized version string.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// isNewerVersion reports whether latest is newer than current.
func isNewerVersion(latest, current string) bool {
	return semver.Compare("v"+normalizeVersion(latest), "v"+normalizeVersion(current)) > 0
}
