package proxy

import "github.com/HanTheDev/personality-gateway/internal/auth"

// sessionUpdate derives the caller session after a successful call. Returning nil
// leaves the current token in place.
type sessionUpdate func(current *auth.Session, payload map[string]any) *auth.Session

// sessionFromRegistration starts a session for the user the backend just created.
func sessionFromRegistration(_ *auth.Session, payload map[string]any) *auth.Session {
	id := idString(payload["id"])
	if id == "" {
		return nil
	}
	name, _ := payload["name"].(string)
	return &auth.Session{UserID: id, UserName: name}
}

// sessionFromResult records the personality code and trait scores once a test is
// finished. Test sessions still in progress are ignored.
func sessionFromResult(current *auth.Session, payload map[string]any) *auth.Session {
	if current == nil {
		return nil
	}
	if status, ok := payload["status"].(string); ok && status != "completed" {
		return nil
	}
	personality, _ := payload["personality_type"].(string)
	if personality == "" {
		return nil
	}

	next := *current
	next.PersonalityType = personality
	if scores, ok := payload["trait_scores"].(map[string]any); ok {
		next.TraitScores = make(map[string]float64, len(scores))
		for trait, v := range scores {
			if f, ok := v.(float64); ok {
				next.TraitScores[trait] = f
			}
		}
	}
	return &next
}
