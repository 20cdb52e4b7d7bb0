package models

// All returns every model in migration order: dictionaries first, the
// aggregate root, then owned collections, then derived tables.
func All() []any {
	return []any{
		&AttributeDefinition{},
		&Product{},
		&ProductAddress{},
		&ProductCommunication{},
		&ProductService{},
		&MediaAsset{},
		&ProductMediaLink{},
		&ProductAttributeValue{},
		&ProductRate{},
		&ProductDeal{},
		&ProductAward{},
		&ProductProximity{},
		&ProductRelated{},
		&ProductComment{},
		&ProductExternalRef{},
		&ChangeLogEntry{},
		&ProductSummary{},
		&SyncCheckpoint{},
	}
}
