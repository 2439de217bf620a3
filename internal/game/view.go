/*
Package game
File: view.go
Description:
    Read model for clients. A View is the state plus the figures a client
    would otherwise have to recompute: chaos/sec, click power, shop prices
    and the apocalypse preview. Built under the engine lock.
*/

package game

// ProducerView is a producer as the shop shows it.
type ProducerView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Cost       float64 `json:"cost"`
	Cost10     float64 `json:"cost_10"`
	Production float64 `json:"production"`
	Unlocked   bool    `json:"unlocked"`
}

// UpgradeView is an upgrade as the shop shows it.
type UpgradeView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	Owned     bool    `json:"owned"`
	Available bool    `json:"available"`
}

// View is a read-only snapshot plus the derived numbers a renderer needs.
type View struct {
	State          *State         `json:"state"`
	ChaosPerSecond float64        `json:"chaos_per_second"`
	ClickPower     float64        `json:"click_power"`
	Apocalypse     Preview        `json:"apocalypse"`
	Ready          bool           `json:"apocalypse_ready"`
	Producers      []ProducerView `json:"producers"`
	Upgrades       []UpgradeView  `json:"upgrades"`
}

// Snapshot builds a View under the engine lock.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, s := e.cat, e.st
	v := View{
		State:          s.Clone(),
		ChaosPerSecond: c.TotalProductionPerSecond(s),
		ClickPower:     c.ClickPower(s, false),
		Apocalypse:     c.preview(s),
		Ready:          c.TriggerMet(s),
	}
	for i := range c.Producers {
		p := &c.Producers[i]
		v.Producers = append(v.Producers, ProducerView{
			ID:         p.ID,
			Name:       p.Name,
			Count:      s.Count(p.ID),
			Cost:       c.Cost(p, s),
			Cost10:     c.BulkCost(p, s, 10),
			Production: c.Production(p, s),
			Unlocked:   c.Satisfied(p.Unlock, s),
		})
	}
	for _, u := range c.Upgrades {
		v.Upgrades = append(v.Upgrades, UpgradeView{
			ID:        u.ID,
			Name:      u.Name,
			Cost:      u.Cost,
			Owned:     s.Upgrades[u.ID],
			Available: !s.Upgrades[u.ID] && c.Satisfied(u.Requirement, s),
		})
	}
	return v
}
