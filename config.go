package main

import (
	"github.com/BurntSushi/toml"
)

// Config holds the flavor and the option overrides applied on top of it.
// A nil override keeps the flavor default.
type Config struct {
	Flavor               string `toml:"flavor"`
	SimpleLineBreaks     *bool  `toml:"simple_line_breaks"`
	OpenLinksInNewWindow *bool  `toml:"open_links_in_new_window"`
	TaskLists            *bool  `toml:"task_lists"`
	Tables               *bool  `toml:"tables"`
	Strikethrough        *bool  `toml:"strikethrough"`
	SimplifiedAutoLink   *bool  `toml:"simplified_auto_link"`
	HeaderIDs            *bool  `toml:"header_ids"`
	Emoji                *bool  `toml:"emoji"`
	GHMentions           *bool  `toml:"gh_mentions"`
	CompleteHTMLDocument *bool  `toml:"complete_html_document"`
}

func ptr[T any](v T) *T {
	return &v
}

// defaultConfig is the github flavor with soft line breaks, links opening
// in a new window and task lists
func defaultConfig() *Config {
	return &Config{
		Flavor:               "github",
		SimpleLineBreaks:     ptr(false),
		OpenLinksInNewWindow: ptr(true),
		TaskLists:            ptr(true),
	}
}

// parseConfig decodes the TOML file into c, keys missing from the file keep their current value
func parseConfig(c *Config, file string) error {
	meta, err := toml.DecodeFile(file, c)
	if err != nil {
		return err
	}

	for _, key := range meta.Undecoded() {
		log.Warn("Unknown configuration key in %s: %#v\n", file, key.String())
	}

	return nil
}

// Options resolves the flavor defaults and applies the overrides.
func (c *Config) Options() (Options, error) {
	opts, err := flavorOptions(c.Flavor)
	if err != nil {
		return Options{}, err
	}

	override(&opts.SimpleLineBreaks, c.SimpleLineBreaks)
	override(&opts.OpenLinksInNewWindow, c.OpenLinksInNewWindow)
	override(&opts.TaskLists, c.TaskLists)
	override(&opts.Tables, c.Tables)
	override(&opts.Strikethrough, c.Strikethrough)
	override(&opts.SimplifiedAutoLink, c.SimplifiedAutoLink)
	override(&opts.HeaderIDs, c.HeaderIDs)
	override(&opts.Emoji, c.Emoji)
	override(&opts.GHMentions, c.GHMentions)
	override(&opts.CompleteHTMLDocument, c.CompleteHTMLDocument)

	return opts, nil
}

func override(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
