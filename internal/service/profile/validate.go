package profile

import (
	"net/url"
	"regexp"
	"strings"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

var (
	genders     = map[string]bool{"male": true, "female": true, "other": true}
	lookingFors = map[string]bool{"dating": true, "friendship": true, "networking": true}
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	maxNameLen     = 100
	maxBioLen      = 1000
	maxInterests   = 20
)

// normalizeUsername trims and lower-cases; handles are unique regardless of case.
func normalizeUsername(u string) (string, error) {
	u = strings.ToLower(strings.TrimSpace(u))
	switch {
	case len(u) < minUsernameLen:
		return "", svcErr.Validation("username must be at least %d characters", minUsernameLen)
	case len(u) > maxUsernameLen:
		return "", svcErr.Validation("username must be at most %d characters", maxUsernameLen)
	case !usernamePattern.MatchString(u):
		return "", svcErr.Validation("username may only contain letters, digits, '_' and '.'")
	}
	return u, nil
}

func normalizeName(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", svcErr.Validation("%s is required", field)
	}
	if len(v) > maxNameLen {
		return "", svcErr.Validation("%s is too long", field)
	}
	return v, nil
}

func validateGender(g string) (string, error) {
	g = strings.ToLower(strings.TrimSpace(g))
	if !genders[g] {
		return "", svcErr.Validation("gender must be one of male, female, other")
	}
	return g, nil
}

func validateLookingFor(l string) (string, error) {
	l = strings.ToLower(strings.TrimSpace(l))
	if !lookingFors[l] {
		return "", svcErr.Validation("looking_for must be one of dating, friendship, networking")
	}
	return l, nil
}

func validateYear(y int32) (int, error) {
	if y < 1 || y > 8 {
		return 0, svcErr.Validation("year_of_study must be between 1 and 8")
	}
	return int(y), nil
}

func normalizeBio(b string) (string, error) {
	b = strings.TrimSpace(b)
	if len(b) > maxBioLen {
		return "", svcErr.Validation("bio must be at most %d characters", maxBioLen)
	}
	return b, nil
}

// normalizeInterests trims tags, drops empties and duplicates (case-insensitive),
// keeping first-seen order.
func normalizeInterests(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) > maxInterests {
		return nil, svcErr.Validation("at most %d interests allowed", maxInterests)
	}
	return out, nil
}

// validateImage accepts "" (no image) or an absolute http(s) URI.
func validateImage(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", nil
	}
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", svcErr.Validation("profile_image must be an http(s) URL")
	}
	return uri, nil
}
