package tour

import "fmt"

const (
	// AnonymousIdentifier namespaces local data when no identifier resolved.
	AnonymousIdentifier = "anon"

	// LegacyAnonymousIdentifier is the marker older spot pages wrote under.
	// It is read as an alias of AnonymousIdentifier and never written.
	LegacyAnonymousIdentifier = "nouid"

	// DeviceIdentifierKey holds the per-device identifier, if any.
	DeviceIdentifierKey = "uid"

	// PendingSurveyKey holds a survey payload waiting to be sent.
	PendingSurveyKey = "postSurvey_pending_payload_v3"

	// FlagTrue is the only value that marks a flag as set.
	FlagTrue = "true"
)

// ResolveIdentifier maps an absent identifier to AnonymousIdentifier.
func ResolveIdentifier(id string) string {
	if id == "" {
		return AnonymousIdentifier
	}
	return id
}

// IsAnonymous reports whether id is absent or one of the fallback markers.
func IsAnonymous(id string) bool {
	return id == "" || id == AnonymousIdentifier || id == LegacyAnonymousIdentifier
}

// Aliases returns every namespace local data for id may live under.
// For anonymous visitors this is the current and the legacy marker.
func Aliases(id string) []string {
	if IsAnonymous(id) {
		return []string{AnonymousIdentifier, LegacyAnonymousIdentifier}
	}
	return []string{id}
}

// StampKey is the local key recording that id owns spot.
func StampKey(id string, spot SpotID) string {
	return fmt.Sprintf("stamp_%s_%s", id, spot)
}

// SeenKey is the local key recording that the completion notification for
// (id, required, scope) was shown. An empty scope yields the unscoped form.
func SeenKey(id string, required int, scope string) string {
	if scope == "" {
		return fmt.Sprintf("complete_%d_seen_%s", required, id)
	}
	return fmt.Sprintf("complete_%d_seen_%s_%s", required, scope, id)
}

// SurveyKey is the local key recording that id submitted the survey.
func SurveyKey(id string) string {
	return fmt.Sprintf("survey_submitted_%s", id)
}

// RemoteStampsPath is the remote record path for id's stamps.
func RemoteStampsPath(id string) string {
	return fmt.Sprintf("users/%s/stamps", id)
}

// RemoteStampPath is the remote path of a single stamp.
func RemoteStampPath(id string, spot SpotID) string {
	return fmt.Sprintf("users/%s/stamps/%s", id, spot)
}

// RemoteUpdatedAtPath is the remote path of id's last-update timestamp.
func RemoteUpdatedAtPath(id string) string {
	return fmt.Sprintf("users/%s/meta/updatedAt", id)
}

// RemoteSurveyPath is the remote path of id's survey answers.
func RemoteSurveyPath(id string) string {
	return fmt.Sprintf("users/%s/survey", id)
}
