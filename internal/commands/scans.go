package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vitaminmoo/bw16-tool/internal/inventory"
	"github.com/vitaminmoo/bw16-tool/internal/store"
)

// StoreList prints the saved scans, newest first.
func StoreList(w io.Writer, st *store.Store) error {
	entries, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No scans in store.")
		fmt.Fprintln(w, "Save one with: bw16 scan --save")
		return nil
	}

	fmt.Fprintf(w, "Found %d scan(s):\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  %-12s  %3d nets  %3d clients  %2d seen  %-20s  %s\n",
			store.ShortHash(e.Hash),
			e.Profile,
			e.Networks,
			e.Clients,
			e.Sightings,
			truncate(e.Strongest, 20),
			dim.Sprint(humanize.Time(e.CreatedAt)))
	}
	return nil
}

// StoreShow prints a saved scan.
func StoreShow(w io.Writer, st *store.Store, hash string, asJSON bool) error {
	scan, err := st.GetScan(hash)
	if err != nil {
		return err
	}
	if asJSON {
		return WriteJSON(w, scan)
	}

	heading.Fprintln(w, store.ShortHash(scan.ContentHash))
	fmt.Fprintf(w, "  Profile:   %s\n", scan.Profile)
	fmt.Fprintf(w, "  Created:   %s (%s)\n", scan.CreatedAt.Format(time.RFC3339), humanize.Time(scan.CreatedAt))
	fmt.Fprintf(w, "  Sightings: %d\n", len(scan.Sightings))
	for _, s := range scan.Sightings {
		where := s.Transport
		if s.Port != "" {
			where += " " + s.Port
		}
		dim.Fprintf(w, "    %s  %s\n", s.Timestamp.Format(time.RFC3339), where)
	}
	fmt.Fprintln(w)

	inv := inventory.Snapshot{Networks: scan.Networks, Clients: scan.Clients, BLE: scan.BLE}
	PrintNetworks(w, inv)
	if len(inv.BLE) > 0 {
		fmt.Fprintln(w)
		PrintBLE(w, inv)
	}
	return nil
}

// StoreCreds prints the persisted credential log.
func StoreCreds(w io.Writer, st *store.Store) error {
	lines, err := st.Credentials()
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if len(lines) == 0 {
		fmt.Fprintln(w, "No credentials captured.")
		return nil
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

// StoreAudit prints the last n lines of the audit log, or all of it when n
// is zero.
func StoreAudit(w io.Writer, st *store.Store, n int) error {
	lines, err := st.AuditLog()
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
