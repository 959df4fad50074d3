package membank

import "os"

// FlatFileFlash is a FlashWriter that simulates bank 189's flash page as a
// single file: every Persist folds one byte into an in-memory image and
// rewrites the whole file, mirroring the original firmware's
// erase-page-then-program-page cycle without needing real flash geometry.
// Shared by the daemon and the offline dali-membank inspector so both
// operate on the same on-disk format.
type FlatFileFlash struct {
	path  string
	image [Bank189LastByte + 1]byte
}

// OpenFlatFileFlash loads path if it exists, or starts from an all-zero
// image if it does not.
func OpenFlatFileFlash(path string) (*FlatFileFlash, error) {
	f := &FlatFileFlash{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, err
	}
	copy(f.image[:], data)
	return f, nil
}

// Persist implements FlashWriter.
func (f *FlatFileFlash) Persist(bank int, offset int, value byte) error {
	if bank != 189 || offset >= len(f.image) {
		return nil
	}
	f.image[offset] = value
	return os.WriteFile(f.path, f.image[:], 0o600)
}

// ReplayInto restores a freshly-constructed Store's RAM shadow from the
// on-disk image, e.g. after a process restart.
func (f *FlatFileFlash) ReplayInto(s *Store) {
	for offset, value := range f.image {
		if value == 0 {
			continue
		}
		_ = s.Persist(189, offset, value)
	}
}
