package inventory

import "sort"

// rankBefore orders networks with clients ahead of those without, then by
// stronger signal.
func rankBefore(a, b *Network) bool {
	ac, bc := a.ClientCount() > 0, b.ClientCount() > 0
	if ac != bc {
		return ac
	}
	return a.RSSI > b.RSSI
}

// Sort ranks the network list and then re-derives every client's
// back-reference. Ties keep their arrival order.
func (s *Store) Sort() {
	sort.SliceStable(s.networks, func(i, j int) bool {
		return rankBefore(&s.networks[i], &s.networks[j])
	})
	s.Relink()
}

// Relink recomputes each client's network index from the networks' client
// lists. Must run after anything that reorders networks; a client found in
// no list ends up unlinked.
func (s *Store) Relink() {
	for i := range s.clients {
		s.clients[i].Network = NoNetwork
	}
	for ni := range s.networks {
		for _, ci := range s.networks[ni].ClientIndices {
			if ci >= 0 && int(ci) < len(s.clients) {
				s.clients[ci].Network = NetworkIndex(ni)
			}
		}
	}
}
