package types

// AllSessionsID is the sentinel session id that authorizes a participant
// for every session.  An empty session list means the same thing; both
// forms appear in upstream data.
const AllSessionsID = "0"

// IdentityRecord is the cached participant profile.  The remote store is
// the sole writer of truth; the local store holds a replica keyed by
// AttendanceID.
type IdentityRecord struct {
	RemoteID     int64    `json:"id"`
	AttendanceID string   `json:"attendance_id"`
	FullName     string   `json:"full_name"`
	Country      string   `json:"country,omitempty"`
	Tag          string   `json:"tag"`
	SessionIDs   []string `json:"session_ids,omitempty"`
	Photo        []byte   `json:"photo,omitempty"`
	CountryImage []byte   `json:"country_image,omitempty"`
}

// AuthorizedFor reports whether the participant may attend the given
// session.
func (r *IdentityRecord) AuthorizedFor(sessionID string) bool {
	if len(r.SessionIDs) == 0 {
		return true
	}
	for _, id := range r.SessionIDs {
		if id == sessionID || id == AllSessionsID {
			return true
		}
	}
	return false
}
