package devenv

// LiveScrapeConfig is read from dev/.state/live_scrape.json5 by the cli's
// `scrape --live` smoke test, it points the scraper at the real site with a
// small group cap.
type LiveScrapeConfig struct {
	Url       string `json:"url"`
	Browser   string `json:"browser"`
	MaxGroups int    `json:"max_groups"`
	OutputDir string `json:"output_dir"`
}
