package felt

type Address Felt

func (a Address) Bytes() [32]byte {
	return Felt(a).Bytes()
}

func (a Address) String() string {
	return Felt(a).String()
}

func (a *Address) UnmarshalJSON(data []byte) error {
	return (*Felt)(a).UnmarshalJSON(data)
}

func (a Address) MarshalJSON() ([]byte, error) {
	return Felt(a).MarshalJSON()
}

func (a Address) MarshalText() ([]byte, error) {
	return Felt(a).MarshalText()
}

func (a *Address) UnmarshalText(data []byte) error {
	return (*Felt)(a).UnmarshalText(data)
}

func (a *Address) SetBytesCanonical(data []byte) error {
	return (*Felt)(a).SetBytesCanonical(data)
}

func (a *Address) IsZero() bool {
	return (*Felt)(a).IsZero()
}

func (a *Address) Equal(b *Address) bool {
	return (*Felt)(a).Equal((*Felt)(b))
}

func (a *Address) Cmp(b *Address) int {
	return (*Felt)(a).Cmp((*Felt)(b))
}

// StorageKey addresses a slot in a contract's storage.
type StorageKey Felt

func (k StorageKey) String() string {
	return Felt(k).String()
}

func (k StorageKey) MarshalJSON() ([]byte, error) {
	return Felt(k).MarshalJSON()
}

func (k StorageKey) MarshalText() ([]byte, error) {
	return Felt(k).MarshalText()
}

func (k *StorageKey) UnmarshalJSON(data []byte) error {
	return (*Felt)(k).UnmarshalJSON(data)
}

func (k *StorageKey) UnmarshalText(data []byte) error {
	return (*Felt)(k).UnmarshalText(data)
}

func (k *StorageKey) Cmp(b *StorageKey) int {
	return (*Felt)(k).Cmp((*Felt)(b))
}
