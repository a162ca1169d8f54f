package models

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

type Setting struct {
	ID                       int    `db:"id" json:"id"`
	AutoDownload             bool   `db:"auto_download" json:"autoDownload"`
	AutoUpdate               bool   `db:"auto_update" json:"autoUpdate"`
	AutoCleanup              bool   `db:"auto_cleanup" json:"autoCleanup"`
	AutoCleanupDays          int    `db:"auto_cleanup_days" json:"autoCleanupDays"`
	PodcastPrefill           int    `db:"podcast_prefill" json:"podcastPrefill"`
	ReplaceInvalidCharacters bool   `db:"replace_invalid_characters" json:"replaceInvalidCharacters"`
	UseExistingFilename      bool   `db:"use_existing_filename" json:"useExistingFilename"`
	ReplacementStrategy      string `db:"replacement_strategy" json:"replacementStrategy"`
	EpisodeFormat            string `db:"episode_format" json:"episodeFormat"`
	PodcastFormat            string `db:"podcast_format" json:"podcastFormat"`
}

// DefaultSetting is the row written when the table is empty.
func DefaultSetting() Setting {
	return Setting{
		ID:                       SettingsID,
		AutoDownload:             true,
		AutoUpdate:               true,
		AutoCleanup:              false,
		AutoCleanupDays:          30,
		PodcastPrefill:           5,
		ReplaceInvalidCharacters: true,
		UseExistingFilename:      false,
		ReplacementStrategy:      "replace-with-dash-and-underscore",
		EpisodeFormat:            "{}",
		PodcastFormat:            "{}",
	}
}
