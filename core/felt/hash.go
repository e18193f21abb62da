package felt

type Hash Felt

func (h Hash) Bytes() [32]byte {
	return Felt(h).Bytes()
}

func (h Hash) String() string {
	return Felt(h).String()
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return Felt(h).MarshalJSON()
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	return (*Felt)(h).UnmarshalJSON(data)
}

func (h *Hash) SetBytesCanonical(data []byte) error {
	return (*Felt)(h).SetBytesCanonical(data)
}

// ClassHash identifies a contract class.
type ClassHash Hash

func (h ClassHash) String() string {
	return Hash(h).String()
}

func (h ClassHash) MarshalJSON() ([]byte, error) {
	return Felt(h).MarshalJSON()
}

func (h ClassHash) MarshalText() ([]byte, error) {
	return Felt(h).MarshalText()
}

func (h *ClassHash) UnmarshalJSON(data []byte) error {
	return (*Felt)(h).UnmarshalJSON(data)
}

func (h *ClassHash) UnmarshalText(data []byte) error {
	return (*Felt)(h).UnmarshalText(data)
}

// CasmClassHash is the hash of the compiled (CASM) form of a Sierra class.
type CasmClassHash ClassHash

func (h CasmClassHash) String() string {
	return ClassHash(h).String()
}

func (h CasmClassHash) MarshalJSON() ([]byte, error) {
	return Felt(h).MarshalJSON()
}

func (h *CasmClassHash) UnmarshalJSON(data []byte) error {
	return (*Felt)(h).UnmarshalJSON(data)
}
