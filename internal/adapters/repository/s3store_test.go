package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeObjects struct {
	objects map[string]string
	keys    []string
	err     error
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestS3Store(t *testing.T) {
	Convey("Given a bucket with a prefix", t, func() {
		ctx := context.Background()
		fake := &fakeObjects{objects: map[string]string{
			"data/contest_lists.json": `{"normal":["ahc001"]}`,
			"data/results/ahc001.json": `{"rows":[{"user":"alice","rank":1,"performance":2000}]}`,
		}}
		store := newS3StoreWithClient(fake, "ahc-bucket", "data")

		Convey("When reading existing objects", func() {
			lists, err := store.Catalog(ctx)
			So(err, ShouldBeNil)
			So(lists.Normal, ShouldResemble, []string{"ahc001"})

			rows, err := store.Standings(ctx, "ahc001")
			So(err, ShouldBeNil)
			So(rows[0].User, ShouldEqual, "alice")
		})

		Convey("When an object is missing", func() {
			_, err := store.Extended(ctx, "ahc001")

			Convey("Then both plain and compressed keys are tried and ErrNotFound returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(fake.keys, ShouldResemble, []string{"data/extended/ahc001.json", "data/extended/ahc001.json.zst"})
			})
		})

		Convey("When the service fails", func() {
			fake.err = errors.New("throttled")
			_, err := store.Standings(ctx, "ahc001")

			Convey("Then the failure is not mistaken for a missing file", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrNotFound), ShouldBeFalse)
			})
		})
	})
}
