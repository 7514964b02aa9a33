package repository

// Entities lists every persisted entity, in dependency order, for AutoMigrate.
func Entities() []interface{} {
	return []interface{}{
		&ZoneEntity{},
		&RouteEntity{},
		&ClientEntity{},
		&SellerEntity{},
		&ProductEntity{},
		&OrderEntity{},
		&LineItemEntity{},
		&TransactionEntity{},
		&PaymentReferenceEntity{},
	}
}
