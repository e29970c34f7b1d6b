package solver

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entity describes how one entity tag maps onto the primary datastore.
type Entity struct {
	Tag          string
	Table        string
	NaturalKey   []string
	Associations []string
}

// RootKey is the top-level request key holding this entity's payload.
func (e Entity) RootKey() string {
	return RootKeyFor(e.Tag)
}

var entities = []Entity{
	{Tag: "Season", Table: "seasons", NaturalKey: []string{"description"}},
	{Tag: "City", Table: "cities", NaturalKey: []string{"name", "country_code"}},
	{Tag: "Team", Table: "teams", NaturalKey: []string{"name"}},
	{Tag: "Swimmer", Table: "swimmers", NaturalKey: []string{"last_name", "first_name", "year_of_birth"}},
	{Tag: "SwimmingPool", Table: "swimming_pools", NaturalKey: []string{"name", "city_id"}, Associations: []string{"City"}},
	{Tag: "Meeting", Table: "meetings", NaturalKey: []string{"code", "season_id"}, Associations: []string{"Season"}},
	{Tag: "Calendar", Table: "calendars", NaturalKey: []string{"meeting_code", "season_id"}, Associations: []string{"Season"}},
	{Tag: "MeetingSession", Table: "meeting_sessions", NaturalKey: []string{"meeting_id", "session_order"}, Associations: []string{"Meeting", "SwimmingPool"}},
	{Tag: "MeetingEvent", Table: "meeting_events", NaturalKey: []string{"meeting_session_id", "event_order"}, Associations: []string{"MeetingSession"}},
	{Tag: "MeetingProgram", Table: "meeting_programs", NaturalKey: []string{"meeting_event_id", "category_type_id", "gender_type_id"}, Associations: []string{"MeetingEvent"}},
	{Tag: "MeetingIndividualResult", Table: "meeting_individual_results", NaturalKey: []string{"meeting_program_id", "swimmer_id"}, Associations: []string{"MeetingProgram", "Swimmer", "Team"}},
	{Tag: "MeetingRelayResult", Table: "meeting_relay_results", NaturalKey: []string{"meeting_program_id", "team_id", "relay_code"}, Associations: []string{"MeetingProgram", "Team"}},
	{Tag: "Lap", Table: "laps", NaturalKey: []string{"meeting_individual_result_id", "length_in_meters"}, Associations: []string{"MeetingIndividualResult"}},
	{Tag: "RelayLap", Table: "relay_laps", NaturalKey: []string{"meeting_relay_result_id", "length_in_meters"}, Associations: []string{"MeetingRelayResult"}},
	{Tag: "Badge", Table: "badges", NaturalKey: []string{"season_id", "swimmer_id", "team_id"}, Associations: []string{"Season", "Swimmer", "Team"}},
	{Tag: "UserWorkshop", Table: "user_workshops", NaturalKey: []string{"code"}, Associations: []string{"Season"}},
	{Tag: "UserResult", Table: "user_results", NaturalKey: []string{"user_workshop_id", "swimmer_id", "event_type_id"}, Associations: []string{"UserWorkshop", "Swimmer"}},
	{Tag: "UserLap", Table: "user_laps", NaturalKey: []string{"user_result_id", "length_in_meters"}, Associations: []string{"UserResult"}},
}

var entityByTag = func() map[string]Entity {
	out := make(map[string]Entity, len(entities))
	for _, e := range entities {
		out[e.Tag] = e
	}
	return out
}()

// Entities returns the supported entity definitions in dependency order.
func Entities() []Entity {
	out := make([]Entity, len(entities))
	copy(out, entities)
	return out
}

// Lookup returns the entity for a tag, accepting snake_case or any casing.
func Lookup(tag string) (Entity, bool) {
	normalized := NormalizeTag(tag)
	if e, ok := entityByTag[normalized]; ok {
		return e, true
	}
	for _, e := range entities {
		if strings.EqualFold(e.Tag, normalized) {
			return e, true
		}
	}
	return Entity{}, false
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// NormalizeTag turns "user_lap", "user-lap" or "user lap" into "UserLap".
func NormalizeTag(tag string) string {
	parts := strings.FieldsFunc(strings.TrimSpace(tag), func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, part := range parts {
		parts[i] = titleCaser.String(part)
	}
	return strings.Join(parts, "")
}

// RootKeyFor converts an entity tag to its snake_case request key.
func RootKeyFor(tag string) string {
	var b strings.Builder
	for i, r := range tag {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
