package store

import "strings"

// likeEscape is the LIKE escape character. A backslash would itself need
// escaping inside MySQL string literals, so a neutral character is used.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// containsPattern turns a user query into a lower-cased LIKE pattern that
// matches it as a literal substring. Use it with "LIKE ? ESCAPE '!'".
func containsPattern(query string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(query)) + "%"
}
