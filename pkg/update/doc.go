// Package update decides whether to tell the user about a newer release.
//
// A Fetcher performs one GET for the release manifest and classifies the
// result as an Outcome. Engine.Decide turns the running version and that
// Outcome into a Decision: whether to prompt, what to show, and how to
// resolve the user's answer into an Action (open a URL, silence a
// category). Decide performs no I/O.
//
// Manifest format:
//
//	{
//	  "metadata": {"lastUpdated": "2024-05-01"},
//	  "versions": [
//	    {"versionNumber": "1.3.0", "push": "True", "description": "...", "updateUrl": "https://..."}
//	  ]
//	}
//
// Silenced categories live in Preferences for the rest of the process; they
// are not written back to the configuration file.
package update
