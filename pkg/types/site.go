package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidSiteID is returned for site IDs that cannot be used as a storage
// path segment or an MQTT topic level.
var ErrInvalidSiteID = errors.New("invalid siteID")

var siteIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateSiteID checks that id is 1 to 64 letters, digits, underscores or
// dashes.
func ValidateSiteID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: siteID cannot be empty", ErrInvalidSiteID)
	}
	if !siteIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidSiteID, id, siteIDPattern)
	}
	return nil
}
