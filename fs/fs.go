// Package appfs embeds the files shipped with the binaries: database migrations, email templates and assets.
package appfs

import "embed"

// Files starting with "_" are skipped by directory patterns, so the email layouts are named explicitly.

//go:embed migrations assets
//go:embed assets/templates/email/_base.txt assets/templates/email/_base.gohtml
var FS embed.FS
