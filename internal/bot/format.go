package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"rent_bot/internal/model"
	"rent_bot/internal/search"
	"rent_bot/internal/wizard"
)

const (
	notSet      = "не вказано"
	noLimit     = "без обмежень"
	anyPets     = "немає"
	placeholder = "—"
)

var fieldLabels = map[wizard.Field]string{
	wizard.FieldCity:     "Місто",
	wizard.FieldDistrict: "Район",
	wizard.FieldMinPrice: "Мін. ціна",
	wizard.FieldMaxPrice: "Макс. ціна",
	wizard.FieldKeywords: "Ключові слова",
	wizard.FieldMaxFloor: "Макс. поверх",
	wizard.FieldMinArea:  "Мін. площа",
	wizard.FieldPets:     "Тварини",
}

var fieldButtons = map[wizard.Field]string{
	wizard.FieldCity:     "🏙️ Місто",
	wizard.FieldDistrict: "🏘️ Район",
	wizard.FieldMinPrice: "💸 Мін. ціна",
	wizard.FieldMaxPrice: "💰 Макс. ціна",
	wizard.FieldKeywords: "🔑 Ключові слова",
	wizard.FieldMaxFloor: "⬆️ Макс. поверх",
	wizard.FieldMinArea:  "📐 Мін. площа",
	wizard.FieldPets:     "🐾 Тварини",
}

var fieldPrompts = map[wizard.Field]string{
	wizard.FieldCity: `Введіть назву міста (наприклад, "Київ"). "0" або порожнє значення шукає по всій Україні.`,
	wizard.FieldDistrict: "Введіть район Києва (наприклад, \"Дарницький\"). \"0\" очищає фільтр.\nДоступні райони: " +
		strings.Join(search.Districts(), ", "),
	wizard.FieldMinPrice: `Введіть мінімальну ціну в гривнях (наприклад, "10000"). "0" очищає фільтр.`,
	wizard.FieldMaxPrice: `Введіть максимальну ціну в гривнях (наприклад, "20000"). "0" очищає фільтр.`,
	wizard.FieldKeywords: `Введіть ключові слова через кому (наприклад, "ремонт, балкон"). "0" очищає фільтр.`,
	wizard.FieldMaxFloor: `Введіть максимальний поверх (наприклад, "9"). "0" очищає фільтр.`,
	wizard.FieldMinArea:  `Введіть мінімальну площу в м² (наприклад, "38"). "0" очищає фільтр.`,
}

var petLabels = map[model.Pet]string{
	model.PetCat:   "Кіт",
	model.PetDog:   "Собака",
	model.PetOther: "Інші тварини",
}

// FormatListing formats a listing as a Telegram notification message.
func FormatListing(l model.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏡 %s\n", l.Title)

	var place []string
	for _, p := range []string{l.City, l.District} {
		if p != "" {
			place = append(place, p)
		}
	}
	if len(place) > 0 {
		fmt.Fprintf(&b, "📍 %s\n", strings.Join(place, ", "))
	}

	fmt.Fprintf(&b, "💰 %s\n", l.Price)
	b.WriteString("🔗 ")
	b.WriteString(l.Link)
	return b.String()
}

// FormatCriteria formats a criteria record for display.
func FormatCriteria(c model.Criteria) string {
	lines := []string{
		"🏙️ " + fieldLabels[wizard.FieldCity] + ": " + orDefault(capitalize(c.City), "вся Україна"),
		"🏘️ " + fieldLabels[wizard.FieldDistrict] + ": " + orDefault(capitalize(c.District), notSet),
		"💸 " + fieldLabels[wizard.FieldMinPrice] + ": " + positive(c.MinPrice, notSet),
		"💰 " + fieldLabels[wizard.FieldMaxPrice] + ": " + positive(c.MaxPrice, notSet),
		"🔑 " + fieldLabels[wizard.FieldKeywords] + ": " + orDefault(strings.Join(c.Keywords, ", "), notSet),
		"⬆️ " + fieldLabels[wizard.FieldMaxFloor] + ": " + positive(c.MaxFloor, noLimit),
		"📐 " + fieldLabels[wizard.FieldMinArea] + ": " + positive(c.MinArea, noLimit),
		"🐾 " + fieldLabels[wizard.FieldPets] + ": " + orDefault(formatPets(c.PetsAllowed), noLimit),
	}
	return strings.Join(lines, "\n")
}

func fieldValue(c model.Criteria, f wizard.Field) string {
	switch f {
	case wizard.FieldCity:
		return c.City
	case wizard.FieldDistrict:
		return capitalize(c.District)
	case wizard.FieldMinPrice:
		return positive(c.MinPrice, notSet)
	case wizard.FieldMaxPrice:
		return positive(c.MaxPrice, notSet)
	case wizard.FieldKeywords:
		return strings.Join(c.Keywords, ", ")
	case wizard.FieldMaxFloor:
		return positive(c.MaxFloor, noLimit)
	case wizard.FieldMinArea:
		return positive(c.MinArea, noLimit)
	case wizard.FieldPets:
		return orDefault(formatPets(c.PetsAllowed), noLimit)
	}
	return placeholder
}

func invalidInputText(f wizard.Field) string {
	if f == wizard.FieldDistrict {
		return "Такий район не підтримується. Спробуйте інший район Києва або \"0\" для очищення."
	}
	return "Потрібне ціле невід'ємне число. \"0\" очищає фільтр."
}

func petsMenuText(c model.Criteria) string {
	return "Оберіть тварин, з якими можна заселятися.\nОбрано: " + orDefault(formatPets(c.PetsAllowed), anyPets)
}

func formatPets(pets []model.Pet) string {
	names := make([]string, 0, len(pets))
	for _, p := range pets {
		if label, ok := petLabels[p]; ok {
			names = append(names, label)
			continue
		}
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func positive(n int, zero string) string {
	if n <= 0 {
		return zero
	}
	return strconv.Itoa(n)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
