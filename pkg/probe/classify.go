package probe

import "strconv"

// Classify derives the terminal ServiceStatus for a probe outcome. Non-HTTP protocols already
// decide Alive/Dead/Degraded inside their prober and pass straight through; HTTP/HTTPS defer the
// decision here since it depends on per-service statusMapping/expectedStatus configuration.
func Classify(spec Spec, res Result) Status {
	if spec.Method != MethodHTTP && spec.Method != MethodHTTPS {
		return res.Status
	}

	if res.StatusCode == nil {
		return StatusDead
	}
	code := *res.StatusCode

	if spec.StatusMapping != nil {
		if tag, ok := spec.StatusMapping[strconv.Itoa(code)]; ok {
			if s := parseStatusTag(tag); s != "" {
				return s
			}
		}
	}

	if code == spec.ExpectedStatus {
		return StatusAlive
	}
	if code == 429 || code == 503 {
		return StatusDegraded
	}
	return StatusDead
}

func parseStatusTag(tag string) Status {
	switch tag {
	case "alive":
		return StatusAlive
	case "degraded":
		return StatusDegraded
	case "dead":
		return StatusDead
	default:
		return ""
	}
}
