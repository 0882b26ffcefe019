package bot

import "strings"

// wizardPrefix namespaces callback data of filter wizard buttons.
const wizardPrefix = "wz"

// Telegram rejects callback data longer than 64 bytes.
const maxCallbackData = 64

func wizardData(action string) string {
	return wizardPrefix + ":" + action
}

// parseCallback splits callback data of the form "<prefix>:<action>".
func parseCallback(data string) (prefix, action string, ok bool) {
	if len(data) > maxCallbackData {
		return "", "", false
	}
	prefix, action, ok = strings.Cut(data, ":")
	if !ok || prefix == "" || action == "" {
		return "", "", false
	}
	return prefix, action, true
}
