package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepoURL parses a GitHub repository reference into owner and name components.
// It accepts full URLs (https://github.com/owner/name, optionally ending in .git),
// host-prefixed paths (github.com/owner/name) and the short owner/name form.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	ref := strings.TrimSpace(repoURL)
	if ref == "" {
		return "", "", fmt.Errorf("invalid GitHub repository URL: empty")
	}
	if !strings.Contains(ref, "://") && strings.HasPrefix(ref, "github.com/") {
		ref = "https://" + ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", "", err
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub repository URL: %s", repoURL)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
