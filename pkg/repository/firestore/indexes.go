package firestore

import "github.com/m-mizutani/fireconf"

// IndexConfig describes the composite indexes the turn log queries need.
// Turns are listed across sessions by session_id and scanned for
// unpersisted memory by the persisted flag, both newest first.
func IndexConfig() *fireconf.Config {
	newestFirst := func(path string) fireconf.Index {
		return fireconf.Index{
			Fields: []fireconf.IndexField{
				{Path: path, Order: fireconf.OrderAscending},
				{Path: "created_at", Order: fireconf.OrderDescending},
			},
		}
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: TurnsCollection,
				Indexes: []fireconf.Index{
					newestFirst("session_id"),
					newestFirst("persisted"),
				},
			},
		},
	}
}
