package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// versionCheckTimeout bounds the GitHub API call when the caller's
// context carries no deadline of its own, so a health check never
// hangs waiting on the network.
const versionCheckTimeout = 3 * time.Second

// VersionChecker checks if the binary version is up to date against
// the project's latest GitHub release.
type VersionChecker struct {
	currentVersion string
	githubRepo     string
	apiBaseURL     string // overridable for testing
}

// NewVersionChecker creates a new version checker.
func NewVersionChecker(currentVersion string, githubRepo string) HealthChecker {
	return &VersionChecker{
		currentVersion: currentVersion,
		githubRepo:     githubRepo,
		apiBaseURL:     "https://api.github.com",
	}
}

// Name returns the check name.
func (v *VersionChecker) Name() string {
	return "version"
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Run executes the version check. Network failure is treated as a pass
// with the error recorded in details, since an offline machine is not
// an unhealthy vault.
func (v *VersionChecker) Run(ctx context.Context) CheckResult {
	details := VersionCheckDetails{Current: v.currentVersion}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, versionCheckTimeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/repos/%s/releases/latest", v.apiBaseURL, v.githubRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		details.CheckError = err.Error()
		details.UpToDate = true
		return CheckResult{Name: v.Name(), Status: CheckPass, Message: "unable to check for updates", Details: details}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		details.CheckError = err.Error()
		details.UpToDate = true
		return CheckResult{Name: v.Name(), Status: CheckPass, Message: "offline, skipped update check", Details: details}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		details.CheckError = fmt.Sprintf("github api returned status %d", resp.StatusCode)
		details.UpToDate = true
		return CheckResult{Name: v.Name(), Status: CheckPass, Message: "unable to check for updates", Details: details}
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		details.CheckError = err.Error()
		details.UpToDate = true
		return CheckResult{Name: v.Name(), Status: CheckPass, Message: "unable to parse release metadata", Details: details}
	}

	details.Latest = release.TagName
	details.UpdateURL = release.HTMLURL
	details.UpToDate = release.TagName == "" || release.TagName == v.currentVersion

	if details.UpToDate {
		return CheckResult{Name: v.Name(), Status: CheckPass, Message: "running the latest version", Details: details}
	}

	return CheckResult{
		Name:           v.Name(),
		Status:         CheckWarning,
		Message:        fmt.Sprintf("update available: %s -> %s", v.currentVersion, release.TagName),
		Recommendation: fmt.Sprintf("download %s from %s", release.TagName, release.HTMLURL),
		Details:        details,
	}
}
