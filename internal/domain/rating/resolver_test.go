package rating_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/pugbot/internal/domain/model"
	"github.com/okian/pugbot/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

var errTransport = errors.New("connection reset")

type fakeSource struct {
	mu       sync.Mutex
	profiles map[string]rating.Profile
	errs     map[string][]error // consumed per call before profiles are consulted
	calls    []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{profiles: map[string]rating.Profile{}, errs: map[string][]error{}}
}

func (f *fakeSource) rated(name string, v int) {
	f.profiles[name] = rating.Profile{Name: name, Rating: v, HasRating: true}
}

func (f *fakeSource) Lookup(_ context.Context, name string) (rating.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if queued := f.errs[name]; len(queued) > 0 {
		f.errs[name] = queued[1:]
		return rating.Profile{}, queued[0]
	}
	if p, ok := f.profiles[name]; ok {
		return p, nil
	}
	return rating.Profile{}, fmt.Errorf("player %q: %w", name, rating.ErrNoProfile)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]int
}

func newMapCache() *mapCache { return &mapCache{m: map[string]int{}} }

func (c *mapCache) Get(id string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[id]
	return v, ok
}

func (c *mapCache) Set(id string, v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = v
}

func TestResolver_Resolve(t *testing.T) {
	Convey("Given a resolver over a fake stats site", t, func() {
		ctx := context.Background()
		src := newFakeSource()
		cache := newMapCache()
		r := rating.NewResolver(src, cache, rating.WithRetryInterval(time.Millisecond))

		Convey("When the nickname resolves", func() {
			src.rated("Nick", 1450)
			id := model.Identity{ID: "1", Username: "handle", Nickname: "Nick"}

			v := r.Resolve(ctx, id)

			Convey("Then the rating is returned and cached", func() {
				So(v, ShouldEqual, 1450)
				cached, ok := cache.Get("1")
				So(ok, ShouldBeTrue)
				So(cached, ShouldEqual, 1450)
			})

			Convey("And the same identity resolves again", func() {
				before := src.callCount()
				So(r.Resolve(ctx, id), ShouldEqual, 1450)

				Convey("Then the source is not consulted", func() {
					So(src.callCount(), ShouldEqual, before)
				})
			})
		})

		Convey("When no name exists on the site", func() {
			id := model.Identity{ID: "2", Username: "ghost", GlobalName: "Ghost"}

			v := r.Resolve(ctx, id)

			Convey("Then the default is returned and not cached", func() {
				So(v, ShouldEqual, rating.DefaultRating)
				_, ok := cache.Get("2")
				So(ok, ShouldBeFalse)
			})

			Convey("Then every candidate variant was tried once", func() {
				So(src.calls, ShouldResemble, []string{"Ghost", "ghost"})
			})
		})

		Convey("When only the lower-cased username resolves", func() {
			src.rated("mixedcase", 1210)
			id := model.Identity{ID: "3", Username: "MixedCase", Nickname: "Someone Else"}

			Convey("Then the later candidate is used", func() {
				So(r.Resolve(ctx, id), ShouldEqual, 1210)
				So(src.calls, ShouldResemble, []string{"Someone Else", "someone else", "Someone%20Else", "MixedCase", "mixedcase"})
			})
		})

		Convey("When a page reports exactly the default rating", func() {
			src.rated("Nick", rating.DefaultRating)
			src.rated("handle", 1300)
			id := model.Identity{ID: "4", Username: "handle", Nickname: "Nick"}

			Convey("Then it is skipped in favour of a later real rating", func() {
				So(r.Resolve(ctx, id), ShouldEqual, 1300)
			})
		})

		Convey("When a page parses but carries no rating", func() {
			src.profiles["Nick"] = rating.Profile{Name: "Nick"}
			id := model.Identity{ID: "5", Nickname: "Nick"}

			Convey("Then the default is returned", func() {
				So(r.Resolve(ctx, id), ShouldEqual, rating.DefaultRating)
			})
		})

		Convey("When the first attempt hits a transport error", func() {
			src.rated("Nick", 1100)
			src.errs["Nick"] = []error{errTransport}
			id := model.Identity{ID: "6", Nickname: "Nick"}

			Convey("Then the lookup is retried", func() {
				So(r.Resolve(ctx, id), ShouldEqual, 1100)
				So(src.calls, ShouldResemble, []string{"Nick", "Nick"})
			})
		})

		Convey("When transport errors outlast the attempts", func() {
			src.rated("Nick", 1100)
			src.errs["Nick"] = []error{errTransport, errTransport, errTransport}
			id := model.Identity{ID: "7", Nickname: "Nick"}

			Convey("Then the next variant is tried after two attempts", func() {
				So(r.Resolve(ctx, id), ShouldEqual, rating.DefaultRating)
				So(src.calls, ShouldResemble, []string{"Nick", "Nick", "nick"})
			})
		})

		Convey("When the context is already cancelled", func() {
			src.rated("Nick", 1100)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the default is returned without lookups", func() {
				So(r.Resolve(cctx, model.Identity{ID: "8", Nickname: "Nick"}), ShouldEqual, rating.DefaultRating)
				So(src.callCount(), ShouldEqual, 0)
			})
		})
	})
}

func TestResolver_Overrides(t *testing.T) {
	Convey("Given a resolver with id and name overrides", t, func() {
		src := newFakeSource()
		r := rating.NewResolver(src, newMapCache(), rating.WithOverrides(map[string]string{
			"266263595346558976": "hellhound",
			"Old Name":           "newname",
		}))

		Convey("When the identity id is overridden", func() {
			id := model.Identity{ID: "266263595346558976", Username: "hh", Nickname: "Hell"}

			Convey("Then the canonical name is tried first", func() {
				So(r.Candidates(id), ShouldResemble, []string{"hellhound", "Hell", "hh"})
			})
		})

		Convey("When a display name is overridden in another case", func() {
			id := model.Identity{ID: "9", Username: "x", Nickname: "old name"}

			Convey("Then it is replaced in place", func() {
				So(r.Candidates(id), ShouldResemble, []string{"newname", "x"})
			})
		})

		Convey("When the override resolves", func() {
			src.rated("hellhound", 1777)
			v := r.Resolve(context.Background(), model.Identity{ID: "266263595346558976", Username: "hh"})
			So(v, ShouldEqual, 1777)
			So(src.calls[0], ShouldEqual, "hellhound")
		})
	})
}

func TestVariants(t *testing.T) {
	Convey("Given names to look up", t, func() {
		So(rating.Variants("Big Boss"), ShouldResemble, []string{"Big Boss", "big boss", "Big%20Boss"})
		So(rating.Variants("plain"), ShouldResemble, []string{"plain"})
		So(rating.Variants("Caps"), ShouldResemble, []string{"Caps", "caps"})
	})
}

func TestResolver_ResolveAll(t *testing.T) {
	Convey("Given several identities", t, func() {
		src := newFakeSource()
		src.rated("a", 1100)
		src.rated("b", 900)
		r := rating.NewResolver(src, newMapCache(), rating.WithConcurrency(2))

		ids := []model.Identity{
			{ID: "1", Username: "a"},
			{ID: "2", Username: "b"},
			{ID: "3", Username: "c"},
		}

		Convey("Then every identity gets a rating", func() {
			got := r.ResolveAll(context.Background(), ids)
			So(got, ShouldResemble, map[string]int{"1": 1100, "2": 900, "3": rating.DefaultRating})
		})
	})
}

func TestResolver_Profile(t *testing.T) {
	Convey("Given a stats page without a rating", t, func() {
		src := newFakeSource()
		src.profiles["casual"] = rating.Profile{Name: "casual", Stats: []rating.Stat{{Label: "Games", Value: "3"}}}
		cache := newMapCache()
		r := rating.NewResolver(src, cache)

		Convey("Then Profile still returns it", func() {
			p, err := r.Profile(context.Background(), model.Identity{ID: "1", Username: "casual"})
			So(err, ShouldBeNil)
			So(p.Stats, ShouldHaveLength, 1)
			_, ok := cache.Get("1")
			So(ok, ShouldBeFalse)
		})

		Convey("Then an unknown player yields ErrRatingUnavailable", func() {
			_, err := r.Profile(context.Background(), model.Identity{ID: "2", Username: "nobody"})
			So(errors.Is(err, rating.ErrRatingUnavailable), ShouldBeTrue)
		})
	})
}
