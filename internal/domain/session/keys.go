package session

// Key scheme for the backing store. One key per session document, one per
// owner index list, one per remembered participant. Participant keys are
// namespaced by client id because the backing store is shared across
// clients, unlike the per-browser storage of a web client.
const (
	sessionKeyPrefix = "feed_session_"
	userKeyPrefix    = "feed_user_"
	indexKeyBase     = "feed_sessions_list"
)

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func participantKey(clientID, sessionID string) string {
	if clientID == "" {
		return userKeyPrefix + sessionID
	}
	return userKeyPrefix + clientID + "_" + sessionID
}

func indexKey(ownerID string) string {
	if ownerID == "" {
		return indexKeyBase
	}
	return indexKeyBase + "_" + ownerID
}
