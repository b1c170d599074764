package identity

import "sort"

// Classification разделяет провайдеров идентичности на парольных
// и федеративных. Набор парольных провайдеров задается конфигом.
type Classification struct {
	passwordLike map[string]struct{}
}

func NewClassification(passwordProviders []string) Classification {
	set := make(map[string]struct{}, len(passwordProviders))
	for _, p := range passwordProviders {
		set[p] = struct{}{}
	}
	return Classification{passwordLike: set}
}

// DefaultClassification соответствует контракту auth-шлюза:
// "password" и "email" - парольные, все остальное - федеративное.
func DefaultClassification() Classification {
	return NewClassification([]string{"password", "email"})
}

func (c Classification) IsPasswordLike(providerID string) bool {
	_, ok := c.passwordLike[providerID]
	return ok
}

// LinkUpsert - одна операция вставки/обновления связки провайдера.
type LinkUpsert struct {
	ProviderID  string
	ProviderUID string
}

// LinkDelta - результат сверки: отсортированные операции к применению
// и флаг Changed, по которому вызывающий решает, обновлять ли
// отметку времени изменения пользователя.
type LinkDelta struct {
	Upserts  []LinkUpsert
	Removals []string
	Changed  bool
}

// Reconcile вычисляет дельту между провайдерами из claims и
// сохраненными связками (provider id -> provider uid). Чистая
// функция, хранилище не трогает.
//
// Правило подавления: если среди claims есть хотя бы один
// федеративный провайдер, парольные провайдеры в целевой набор не
// попадают. Уже сохраненная парольная связка при этом не удаляется -
// удаление затрагивает только федеративные провайдеры, которые токен
// больше не сообщает.
func Reconcile(claims *Claims, persisted map[string]string, cls Classification) LinkDelta {
	target := make(map[string]string, len(claims.Identities))
	hasFederated := false
	for providerID := range claims.Identities {
		uid, ok := claims.PrimaryUID(providerID)
		if !ok {
			continue
		}
		target[providerID] = uid
		if !cls.IsPasswordLike(providerID) {
			hasFederated = true
		}
	}

	if hasFederated {
		for providerID := range target {
			if cls.IsPasswordLike(providerID) {
				delete(target, providerID)
			}
		}
	}

	var delta LinkDelta

	for providerID, uid := range target {
		if persistedUID, ok := persisted[providerID]; !ok || persistedUID != uid {
			delta.Upserts = append(delta.Upserts, LinkUpsert{ProviderID: providerID, ProviderUID: uid})
		}
	}
	sort.Slice(delta.Upserts, func(i, j int) bool {
		return delta.Upserts[i].ProviderID < delta.Upserts[j].ProviderID
	})

	for providerID := range persisted {
		if _, ok := target[providerID]; ok {
			continue
		}
		if cls.IsPasswordLike(providerID) {
			continue
		}
		delta.Removals = append(delta.Removals, providerID)
	}
	sort.Strings(delta.Removals)

	delta.Changed = len(delta.Upserts) > 0 || len(delta.Removals) > 0
	return delta
}
