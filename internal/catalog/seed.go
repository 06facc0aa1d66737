package catalog

func intPtr(v int) *int { return &v }

// Seed is the catalog served before an admin has saved one.
func Seed() []Product {
	return []Product{
		{
			Code:        "CRX-001",
			Name:        "Butter Croissant",
			Description: "Classic laminated croissant, 24h fermented dough",
			Price:       2.80,
			Image:       "/img/croissant.jpg",
			Category:    "viennoiserie",
			Stock:       intPtr(40),
		},
		{
			Code:        "PNS-002",
			Name:        "Pain Suisse",
			Description: "Brioche dough with vanilla cream and chocolate chips",
			Price:       3.20,
			Image:       "/img/pain-suisse.jpg",
			Category:    "viennoiserie",
			Stock:       intPtr(25),
		},
		{
			Code:        "ECL-003",
			Name:        "Chocolate Eclair",
			Description: "Choux pastry, dark chocolate glaze, chocolate creme patissiere",
			Price:       4.50,
			Image:       "/img/eclair.jpg",
			Category:    "patisserie",
			Stock:       intPtr(18),
		},
		{
			Code:        "MCR-004",
			Name:        "Macaron Box (6)",
			Description: "Assorted macarons, flavors of the day",
			Price:       12.00,
			Image:       "/img/macarons.jpg",
			Category:    "confectionery",
			Stock:       intPtr(12),
		},
		{
			Code:        "TRT-005",
			Name:        "Lemon Tart",
			Description: "Sable crust, lemon curd, torched meringue",
			Price:       5.10,
			Image:       "/img/lemon-tart.jpg",
			Category:    "patisserie",
			Stock:       intPtr(15),
		},
		{
			Code:        "BGT-006",
			Name:        "Baguette Tradition",
			Description: "Stone-baked, T65 flour, baked three times a day",
			Price:       1.60,
			Image:       "/img/baguette.jpg",
			Category:    "bread",
			// baked continuously, never capped
		},
		{
			Code:        "CAKE-007",
			Name:        "Celebration Cake",
			Description: "Layered sponge with personalized icing message",
			Price:       28.00,
			Image:       "/img/celebration-cake.jpg",
			Category:    "cakes",
			Stock:       intPtr(6),
		},
	}
}
