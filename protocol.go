package main

import "encoding/json"

// Message types the client may send
const (
	MsgList   = "list"   // list sessions
	MsgCreate = "create" // create session
	MsgJoin   = "join"
	MsgCheck  = "check" // check if session exists
	MsgLeave  = "leave"

	MsgMove       = "move"
	MsgFire       = "fire"    // also echoed server -> session
	MsgRequestHit = "hit_req" // hit claim, server validates
	MsgReload     = "reload"  // also echoed server -> session

	MsgUpgradePick = "up_pick"

	MsgRegister    = "register"
	MsgLogin       = "login"
	MsgAuth        = "auth" // token re-auth
	MsgProfile     = "profile"
	MsgLeaderboard = "leaderboard"
)

// Server -> Client message types
const (
	MsgState    = "state" // binary msgpack snapshot
	MsgWelcome  = "welcome"
	MsgJoined   = "joined"
	MsgCreated  = "created" // session created, client should navigate
	MsgSessions = "sessions"
	MsgChecked  = "checked"
	MsgError    = "error"

	MsgHit       = "hit"        // validated hit on a player or enemy
	MsgTargetHit = "target_hit" // validated hit on a range target
	MsgDeath     = "death"
	MsgRespawn   = "respawn"
	MsgWaveState = "wave"
	MsgGameEnd   = "game_end"

	MsgUpgradeOffer = "up_offer" // sent to the offer's player only
	MsgUpgradeApply = "up_apply"

	MsgAuthOK          = "auth_ok"
	MsgProfileData     = "profile_data"
	MsgLeaderboardData = "leaderboard_data"
	MsgAchievement     = "achievement"
)

// Envelope frames every JSON message with a short type tag
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// MoveMsg is the client's unreliable movement update. A weapon id different
// from the player's current weapon counts as a switch request.
type MoveMsg struct {
	Pos    Vec3   `json:"p"`
	Rot    Vec3   `json:"r"`
	Weapon string `json:"w,omitempty"`
}

// FireMsg is the client's shot notification (also drives the weapon state machine)
type FireMsg struct {
	Weapon string `json:"w"`
	Origin Vec3   `json:"o"`
	Dir    Vec3   `json:"d"`
}

// FireEvent is the server's echo of an accepted shot
type FireEvent struct {
	PlayerID string `json:"pid"`
	Weapon   string `json:"w"`
	Origin   Vec3   `json:"o"`
	Dir      Vec3   `json:"d"`
	Ammo     int    `json:"ammo"` // rounds left in the magazine
}

// HitClaimMsg is a client hit claim awaiting server validation
type HitClaimMsg struct {
	TargetID string  `json:"tid"`
	Damage   float64 `json:"dmg"`
	Part     string  `json:"part"` // head|body|object
	Weapon   string  `json:"w"`
	Origin   Vec3    `json:"o"`
	Dir      Vec3    `json:"d"`
	ClientTS float64 `json:"ts,omitempty"` // unix seconds at the shooter
}

// HitEvent is broadcast after a claim passes validation
type HitEvent struct {
	TargetID   string  `json:"tid"`
	AttackerID string  `json:"aid"`
	Damage     float64 `json:"dmg"`
	NewHealth  float64 `json:"hp"`
	Part       string  `json:"part"`
}

// ReloadMsg is the client's reload request
type ReloadMsg struct {
	Weapon string `json:"w"`
}

// ReloadEvent is broadcast when a reload actually starts
type ReloadEvent struct {
	PlayerID string  `json:"pid"`
	Weapon   string  `json:"w"`
	Duration float64 `json:"dur"` // seconds until the magazine refills
}

// DeathEvent is broadcast when any entity's health first reaches zero
type DeathEvent struct {
	TargetID     string  `json:"tid"`
	AttackerID   string  `json:"aid,omitempty"`
	RespawnDelay float64 `json:"delay"`
	CanRespawn   bool    `json:"cr"`
	Mode         string  `json:"mode"`
}

// RespawnEvent is broadcast when a player re-enters play
type RespawnEvent struct {
	PlayerID string `json:"pid"`
	Pos      Vec3   `json:"p"`
}

// WaveStateMsg is broadcast once per second and on every phase change
type WaveStateMsg struct {
	Wave      int    `json:"wave"`
	Phase     string `json:"phase"`
	Remaining int    `json:"left"` // enemies left to kill this wave
	TimeLeft  int    `json:"time"` // seconds remaining in timed phases
	Alive     int    `json:"ap"`   // alive players
	Total     int    `json:"tp"`   // connected players
}

// UpgradeOption is one pickable entry inside an offer
type UpgradeOption struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Rarity int    `json:"rarity"`
}

// UpgradeOfferMsg is sent to exactly one player at the start of an upgrade phase
type UpgradeOfferMsg struct {
	OfferID  string          `json:"oid"`
	PlayerID string          `json:"pid"`
	Options  []UpgradeOption `json:"opts"`
	Expires  float64         `json:"exp"` // seconds until auto-resolve
}

// UpgradePickMsg is the client's choice for a pending offer
type UpgradePickMsg struct {
	OfferID   string `json:"oid"`
	UpgradeID string `json:"uid"`
}

// UpgradeApplyMsg is broadcast after a pick (or auto-resolve) lands
type UpgradeApplyMsg struct {
	PlayerID  string `json:"pid"`
	UpgradeID string `json:"uid"`
	Stacks    int    `json:"stacks"`
}

// PlayerEndStats is one scoreboard row in a GameEndMsg
type PlayerEndStats struct {
	PlayerID string  `json:"pid"`
	Name     string  `json:"n"`
	Kills    int     `json:"k"`
	Deaths   int     `json:"d"`
	Damage   float64 `json:"dmg"`
}

// GameEndMsg is broadcast exactly once when a match concludes
type GameEndMsg struct {
	WinnerID string           `json:"wid,omitempty"`
	Reason   string           `json:"reason"`
	Stats    []PlayerEndStats `json:"stats"`
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Mode        int    `json:"mode"`
}

// AmmoState mirrors the magazine of the player's current weapon
type AmmoState struct {
	Cur     int `json:"c" msgpack:"c"`
	Reserve int `json:"r" msgpack:"r"`
	Mag     int `json:"m" msgpack:"m"`
}

// PlayerState is broadcast per player each network tick
type PlayerState struct {
	ID     string    `json:"id" msgpack:"id"`
	Name   string    `json:"n" msgpack:"n"`
	Pos    Vec3      `json:"p" msgpack:"p"`
	Rot    Vec3      `json:"r" msgpack:"r"`
	HP     float64   `json:"hp" msgpack:"hp"`
	MaxHP  float64   `json:"mhp" msgpack:"mhp"`
	Weapon string    `json:"w" msgpack:"w"`
	Ammo   AmmoState `json:"am" msgpack:"am"`
	Dead   bool      `json:"dead" msgpack:"dead"`
	Kills  int       `json:"k" msgpack:"k"`
	Deaths int       `json:"d" msgpack:"d"`
}

// EnemyState is broadcast per enemy
type EnemyState struct {
	ID     string  `json:"id" msgpack:"id"`
	Pos    Vec3    `json:"p" msgpack:"p"`
	Rot    Vec3    `json:"r" msgpack:"r"`
	HP     float64 `json:"hp" msgpack:"hp"`
	MaxHP  float64 `json:"mhp" msgpack:"mhp"`
	AI     string  `json:"ai" msgpack:"ai"` // idle|chase|attack
	Moving bool    `json:"mv" msgpack:"mv"`
	Alive  bool    `json:"a" msgpack:"a"`
}

// TargetState is broadcast per shooting-range target
type TargetState struct {
	ID   string  `json:"id" msgpack:"id"`
	Pos  Vec3    `json:"p" msgpack:"p"`
	Type string  `json:"tp" msgpack:"tp"`
	HP   float64 `json:"hp" msgpack:"hp"`
	Up   bool    `json:"up" msgpack:"up"`
}

// PickupState is broadcast per pickup
type PickupState struct {
	ID   string `json:"id" msgpack:"id"`
	Pos  Vec3   `json:"p" msgpack:"p"`
	Type string `json:"tp" msgpack:"tp"`
}

// GameState is the full snapshot broadcast on the network pass
type GameState struct {
	Players []PlayerState `json:"p" msgpack:"p"`
	Enemies []EnemyState  `json:"e" msgpack:"e"`
	Targets []TargetState `json:"tg" msgpack:"tg"`
	Pickups []PickupState `json:"pk" msgpack:"pk"`
	Tick    uint64        `json:"tick" msgpack:"tick"`
}

// WelcomeMsg is sent to a player right after they join
type WelcomeMsg struct {
	ID     string `json:"id"`
	Weapon string `json:"w"`
	Pos    Vec3   `json:"p"`
	Mode   string `json:"mode"`
}

// SessionInfo is one row of the lobby listing
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Mode    int    `json:"mode"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by the client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg answers a session check; Name and Players are only set on hit
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// CredentialsMsg carries a username and password. Both the register and
// login messages use it.
type CredentialsMsg struct {
	Username string `json:"u"`
	Password string `json:"pw"`
}

// AuthMsg re-authenticates with a previously issued token
type AuthMsg struct {
	Token string `json:"tok"`
}

// AuthOKMsg confirms register/login/auth
type AuthOKMsg struct {
	Token    string `json:"tok"`
	Username string `json:"u"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries persistent account stats
type ProfileDataMsg struct {
	Username     string `json:"u"`
	Level        int    `json:"lvl"`
	XP           int64  `json:"xp"`
	Kills        int64  `json:"k"`
	Deaths       int64  `json:"d"`
	Headshots    int64  `json:"hs"`
	WavesCleared int64  `json:"wc"`
	Wins         int64  `json:"wins"`
	Losses       int64  `json:"losses"`
	Playtime     int64  `json:"pt"` // seconds
}

// LeaderboardMsg asks for the top ranked accounts. By picks the ranking
// column and defaults to xp; Limit defaults to 20.
type LeaderboardMsg struct {
	By    string `json:"by,omitempty"`
	Limit int    `json:"n,omitempty"`
}

// LeaderboardDataMsg answers a leaderboard query
type LeaderboardDataMsg struct {
	By      string             `json:"by"`
	Entries []LeaderboardEntry `json:"rows"`
}

// AchievementMsg notifies an unlock
type AchievementMsg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}
