package main

// AchievementDef describes one unlockable achievement
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

// Achievements lists every achievement in profile display order
var Achievements = []AchievementDef{
	{"first_blood", "First Blood", "Get your first kill"},
	{"sharpshooter", "Sharpshooter", "Reach 100 total kills"},
	{"centurion", "Centurion", "Reach 1000 total kills"},
	{"marksman", "Marksman", "Land 50 headshots"},
	{"deadeye", "Deadeye", "Land 500 headshots"},
	{"rampage", "Rampage", "Get 15 kills in a single match"},
	{"flawless", "Flawless Victory", "Win a match without dying"},
	{"victor", "Victor", "Win 10 matches"},
	{"holding_line", "Holding the Line", "Clear wave 5 in a single run"},
	{"exterminator", "Exterminator", "Survive every wave in a single run"},
	{"veteran", "Veteran", "Reach level 10"},
	{"elite", "Elite", "Reach level 25"},
	{"legend", "Legend", "Reach level 50"},
	{"survivor", "Survivor", "Play for 1 hour total"},
}

// CheckAchievements evaluates every achievement condition for a player and
// persists the ones that newly pass. Lifetime counters are read after the
// match was folded into stats, so kills and headshots from this match
// already count. Returns the newly unlocked definitions.
func CheckAchievements(db *DB, playerID int64, matchKills, matchDeaths, matchWaves int, won bool) []AchievementDef {
	if db == nil {
		return nil
	}
	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}
	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}

	earned := map[string]bool{
		"first_blood":  stats.Kills >= 1,
		"sharpshooter": stats.Kills >= 100,
		"centurion":    stats.Kills >= 1000,
		"marksman":     stats.Headshots >= 50,
		"deadeye":      stats.Headshots >= 500,
		"rampage":      matchKills >= 15,
		"flawless":     won && matchDeaths == 0,
		"victor":       stats.Wins >= 10,
		"holding_line": matchWaves >= 5,
		"exterminator": won && matchWaves > 0,
		"veteran":      stats.Level >= 10,
		"elite":        stats.Level >= 25,
		"legend":       stats.Level >= 50,
		"survivor":     stats.Playtime >= 3600,
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if !earned[def.ID] || has[def.ID] {
			continue
		}
		fresh, err := db.UnlockAchievement(playerID, def.ID)
		if err != nil || !fresh {
			continue
		}
		unlocked = append(unlocked, def)
	}
	return unlocked
}
