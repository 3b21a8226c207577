package stats

import (
	"sync"
	"testing"
)

func TestNewStoreReturnsInitial(t *testing.T) {
	got := NewStore().Get()

	want := StreamStats{NetworkQuality: "Unknown"}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestSetGet(t *testing.T) {
	s := NewStore()
	want := StreamStats{Bitrate: 4980, FPS: 29.97, DroppedFrames: 3, NetworkQuality: "Good", UptimeSeconds: 60}

	s.Set(want)
	if got := s.Get(); got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	s.Reset()
	if got := s.Get(); got != Initial() {
		t.Errorf("after Reset Get() = %+v, want initial", got)
	}
}

func TestOnSetHook(t *testing.T) {
	var got []StreamStats
	s := NewStore(WithOnSet(func(st StreamStats) {
		got = append(got, st)
	}))

	s.Set(StreamStats{FPS: 30, NetworkQuality: "Good"})
	s.Reset()

	if len(got) != 2 {
		t.Fatalf("hook called %d times, want 2", len(got))
	}
	if got[0].FPS != 30 || got[1] != Initial() {
		t.Errorf("hook values = %+v", got)
	}
}

func TestHookCanReadStore(t *testing.T) {
	var s *Store
	var seen StreamStats
	s = NewStore(WithOnSet(func(StreamStats) {
		seen = s.Get()
	}))

	s.Set(StreamStats{Bitrate: 1})
	if seen.Bitrate != 1 {
		t.Errorf("hook read %+v, want bitrate 1", seen)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 200 {
				s.Set(StreamStats{Bitrate: uint32(i*1000 + j), NetworkQuality: "Good"})
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				if st := s.Get(); st.NetworkQuality == "" {
					t.Error("observed a torn snapshot")
					return
				}
			}
		}()
	}
	wg.Wait()
}
