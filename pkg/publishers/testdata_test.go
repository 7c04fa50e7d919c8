package publishers

import "github.com/samvad-hq/accessible-pipeline/internal/domain"

func sampleEvent() Event {
	return NewEvent("1700000000000", "https://site.test/", domain.InProgressEvent("https://site.test/about"))
}
