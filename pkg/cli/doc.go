// Package cli implements aiwu-statsctl, a command line client that computes
// the dashboard report straight from the event tables or a JSON fixture.
//
//	aiwu-statsctl report --dsn 'wp:secret@tcp(db:3306)/wordpress' --from 2025-03-01 --to 2025-03-31
//	aiwu-statsctl report --fixture events.json --plan pro --feature chatbots --pretty
//	aiwu-statsctl catalog --catalog /etc/aiwu/catalog.yaml
package cli
