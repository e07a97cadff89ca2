package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_queue_audit_01",
			"name": "queue_audit",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_entry_id",
					"name": "entry_id",
					"type": "text",
					"required": true,
					"presentable": false,
					"system": false
				},
				{
					"id": "text_display_number",
					"name": "display_number",
					"type": "text",
					"required": true,
					"presentable": true,
					"system": false
				},
				{
					"id": "text_action",
					"name": "action",
					"type": "text",
					"required": true,
					"presentable": false,
					"system": false
				},
				{
					"id": "text_customer_name",
					"name": "customer_name",
					"type": "text",
					"required": false,
					"presentable": false,
					"system": false
				},
				{
					"id": "text_contact",
					"name": "contact",
					"type": "text",
					"required": false,
					"presentable": false,
					"system": false
				},
				{
					"id": "autodate_created",
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false,
					"system": false
				}
			],
			"indexes": [
				"CREATE INDEX idx_queue_audit_created ON queue_audit (created)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("queue_audit")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
