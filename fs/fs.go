// Package appfs embeds the SQL migrations and the HTML and email templates.
package appfs

import "embed"

//go:embed migrations templates templates/web/_*.gohtml templates/email/_*
var FS embed.FS
