package config

import "path/filepath"

// Builtin returns the Chromium -> Brave registry for a Chromium checkout
// rooted at srcDir, with the Brave tree checked out at srcDir/brave.
//
// Brave-only descriptors must not be registered here. Never add a part path
// without its parent descriptor. The first three pairs are explicit because
// their file names change downstream.
func Builtin(srcDir string) *File {
	return &File{
		UpstreamRoot:   srcDir,
		DownstreamRoot: filepath.Join(srcDir, "brave"),
		Registrations: []Registration{
			// These map to brave/app/resources/chromium_strings*.xtb
			{Upstream: "chrome/app/chromium_strings.grd", Downstream: "app/brave_strings.grd"},
			{Upstream: "chrome/app/settings_chromium_strings.grdp", Downstream: "app/settings_brave_strings.grdp"},

			// These map to brave/app/strings/components_chromium_strings*.xtb
			{Upstream: "components/components_chromium_strings.grd", Downstream: "components/components_brave_strings.grd"},

			{Upstream: "components/components_strings.grd", Downstream: "components/components_strings.grd", Expand: true},
			// chromeos_strings.grdp is skipped by the translation service.
			{
				Upstream:   "chrome/app/generated_resources.grd",
				Downstream: "app/generated_resources.grd",
				Expand:     true,
				Exclude:    []string{"chromeos_strings.grdp"},
			},
			{
				Upstream:   "chrome/android/java/strings/android_chrome_strings.grd",
				Downstream: "android/java/strings/android_chrome_strings.grd",
				Expand:     true,
			},
		},
		// Tracked for translation but never generated; the extension message
		// catalogs are localized inside their extensions.
		NonGenerated: []string{
			"app/brave_generated_resources.grd",
			"components/resources/brave_components_strings.grd",
			"components/brave_extension/extension/brave_extension/_locales/en_US/messages.json",
			"components/brave_rewards/resources/extension/brave_rewards/_locales/en_US/messages.json",
		},
		ExtraPaths: []string{
			"../../../ethereum-remote-client/app/_locales/en/messages.json",
			"../../../ethereum-remote-client/brave/app/_locales/en/messages.json",
		},
	}
}
