package server

// codeCache holds the latest source text per language for one room. It is
// owned by the room's event loop, seeded lazily from the persisted code map,
// and written through on every edit so that joining connections can be
// resynchronized without a store round-trip.
type codeCache struct {
	code map[string]string
}

func newCodeCache() *codeCache {
	return &codeCache{code: make(map[string]string)}
}

// seed loads the persisted code map. It applies only when the cache is empty
// and the persisted map is not; a populated cache is already fresher than
// the store.
func (cc *codeCache) seed(persisted map[string]string) {
	if len(cc.code) > 0 || len(persisted) == 0 {
		return
	}

	for language, text := range persisted {
		cc.code[language] = text
	}
}

// set records the latest text for a language. Slots are created on demand,
// last writer wins.
func (cc *codeCache) set(language, text string) {
	cc.code[language] = text
}

func (cc *codeCache) entries() map[string]string {
	return cc.code
}

func (cc *codeCache) len() int {
	return len(cc.code)
}
