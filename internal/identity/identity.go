package identity

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"unicode"
	"wcl-rankings/internal/config"
	"wcl-rankings/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const armoryLinkSelector = "a.armoryLink"

var localeRegions = map[string]domain.Region{
	"en-us": domain.RegionUS,
	"es-mx": domain.RegionUS,
	"pt-br": domain.RegionUS,
	"en-gb": domain.RegionEU,
	"de-de": domain.RegionEU,
	"fr-fr": domain.RegionEU,
	"es-es": domain.RegionEU,
	"it-it": domain.RegionEU,
}

// FromArmoryURL reads the character identity out of an armory link of the form
// https://worldofwarcraft.com/<locale>/character/[<region>/]<realm>/<name>.
func FromArmoryURL(href string) (domain.Identity, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return domain.Identity{}, &domain.ParseError{What: "armory url", Err: err}
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if (len(segments) != 4 && len(segments) != 5) || segments[1] != "character" {
		return domain.Identity{}, &domain.ParseError{What: "armory url", Err: fmt.Errorf("unexpected path %q", u.Path)}
	}

	locale := strings.ToLower(segments[0])
	region, ok := localeRegions[locale]
	if !ok {
		return domain.Identity{}, &domain.ParseError{What: "armory url", Err: fmt.Errorf("unknown locale:%q", locale)}
	}
	if len(segments) == 5 {
		if explicit := domain.Region(strings.ToLower(segments[2])); explicit != region {
			return domain.Identity{}, &domain.ParseError{What: "armory url", Err: fmt.Errorf("region %q does not match locale %q", explicit, locale)}
		}
	}

	realm, err := url.PathUnescape(segments[len(segments)-2])
	if err != nil {
		return domain.Identity{}, &domain.ParseError{What: "armory url realm", Err: err}
	}
	name, err := url.PathUnescape(segments[len(segments)-1])
	if err != nil {
		return domain.Identity{}, &domain.ParseError{What: "armory url name", Err: err}
	}
	if realm == "" || name == "" {
		return domain.Identity{}, &domain.ParseError{What: "armory url", Err: errors.New("empty realm or name")}
	}

	realm, err = StripDiacritics(realm)
	if err != nil {
		return domain.Identity{}, &domain.ParseError{What: "armory url realm", Err: err}
	}

	return domain.Identity{Region: region, Realm: realm, CharacterName: name}, nil
}

// FromHTML finds the armory link on a profile page and parses it.
func FromHTML(r io.Reader) (domain.Identity, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.Identity{}, &domain.ParseError{What: "page", Err: err}
	}

	href, ok := doc.Find(armoryLinkSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return domain.Identity{}, &domain.ParseError{What: "page", Err: errors.New("armory link not found")}
	}

	return FromArmoryURL(href)
}

// StripDiacritics turns "Quel'Thalás" into "Quel'Thalas", the form WarcraftLogs uses in server slugs.
func StripDiacritics(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	return out, err
}

// FromConfig resolves the session identity from a saved profile page or an armory url.
func FromConfig(cfg *config.Config) (domain.Identity, error) {
	if cfg.ProfilePage == "" {
		return FromArmoryURL(cfg.ArmoryURL)
	}

	f, err := os.Open(cfg.ProfilePage)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to open profile page: %w", err)
	}
	defer f.Close()

	return FromHTML(f)
}
