package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cosmetica/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalSheetSource_Resolve(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	home := filepath.Join(root, "home")
	writeFile(t, filepath.Join(dataDir, "urunler.xlsx"), "x")
	writeFile(t, filepath.Join(home, "Downloads", "fiyatlar.csv"), "x")
	writeFile(t, filepath.Join(root, "direct.csv"), "x")

	source := NewLocalSheetSource([]string{dataDir, "~/Downloads"})
	source.homeDir = func() (string, error) { return home, nil }

	t.Run("path as given", func(t *testing.T) {
		got, err := source.Resolve(filepath.Join(root, "direct.csv"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "direct.csv"), got)
	})

	t.Run("falls back to search dirs by base name", func(t *testing.T) {
		got, err := source.Resolve("somewhere/else/urunler.xlsx")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dataDir, "urunler.xlsx"), got)
	})

	t.Run("expands home", func(t *testing.T) {
		got, err := source.Resolve("fiyatlar.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "Downloads", "fiyatlar.csv"), got)
	})

	t.Run("directories do not count", func(t *testing.T) {
		_, err := source.Resolve(dataDir)
		assert.ErrorIs(t, err, ErrSheetNotFound)
	})

	t.Run("missing sheet lists tried paths", func(t *testing.T) {
		_, err := source.Resolve("yok.xlsx")
		require.ErrorIs(t, err, ErrSheetNotFound)

		var notFound *SheetNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Len(t, notFound.Tried, 3)
		assert.Contains(t, err.Error(), filepath.Join(dataDir, "yok.xlsx"))
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := source.Resolve("  ")
		assert.ErrorIs(t, err, ErrSheetNotFound)
	})
}

func TestLocalSheetSource_Open(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "urunler.csv"), "Ürün Adı;Fiyat\n")

	name, body, err := NewLocalSheetSource(nil).Open(context.Background(), filepath.Join(dir, "urunler.csv"))
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, filepath.Join(dir, "urunler.csv"), name)
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "Ürün Adı;Fiyat\n", string(content))
}

func TestParseS3URI(t *testing.T) {
	loc, err := ParseS3URI("s3://catalog-sheets/2026/urunler.xlsx")
	require.NoError(t, err)
	assert.Equal(t, S3Location{Bucket: "catalog-sheets", Key: "2026/urunler.xlsx"}, loc)

	for _, bad := range []string{"s3://bucket", "s3://bucket/", "s3:///key.xlsx", "https://bucket/key.xlsx"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseS3URI(bad)
			assert.ErrorIs(t, err, ErrInvalidS3URI)
		})
	}

	assert.True(t, IsS3URI(" S3://bucket/key"))
	assert.False(t, IsS3URI("./data/urunler.xlsx"))
}

type fakeObjectGetter struct {
	objects map[string]string
	input   *s3.GetObjectInput
	err     error
}

func (f *fakeObjectGetter) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func TestS3SheetSource_Open(t *testing.T) {
	getter := &fakeObjectGetter{objects: map[string]string{"sheets/imports/urunler.csv": "a;b\n"}}
	source := newS3SheetSource(getter, WithLogger(zaptest.NewLogger(t)))
	ctx := context.Background()

	t.Run("downloads the object", func(t *testing.T) {
		name, body, err := source.Open(ctx, "s3://sheets/imports/urunler.csv")
		require.NoError(t, err)
		defer body.Close()

		assert.Equal(t, "urunler.csv", name)
		assert.Equal(t, "sheets", aws.ToString(getter.input.Bucket))
		assert.Equal(t, "imports/urunler.csv", aws.ToString(getter.input.Key))
		content, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "a;b\n", string(content))
	})

	t.Run("missing key is not found", func(t *testing.T) {
		_, _, err := source.Open(ctx, "s3://sheets/yok.xlsx")
		assert.ErrorIs(t, err, ErrSheetNotFound)
	})

	t.Run("transport errors are wrapped", func(t *testing.T) {
		failing := newS3SheetSource(&fakeObjectGetter{err: errors.New("access denied")})
		_, _, err := failing.Open(ctx, "s3://sheets/imports/urunler.csv")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSheetNotFound)
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestNewS3SheetSource_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3SheetSource(ctx, nil)
	assert.Error(t, err)

	_, err = NewS3SheetSource(ctx, &config.StorageConfig{AccessKeyID: "only-id"})
	assert.Error(t, err)

	source, err := NewS3SheetSource(ctx, &config.StorageConfig{
		Region:          "eu-central-1",
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	assert.NotNil(t, source)
}

type stubSource struct{ name string }

func (s stubSource) Open(context.Context, string) (string, io.ReadCloser, error) {
	return s.name, io.NopCloser(strings.NewReader("")), nil
}

func TestSheetLocator_Dispatch(t *testing.T) {
	locator := &SheetLocator{Local: stubSource{name: "local"}}
	ctx := context.Background()

	name, _, err := locator.Open(ctx, "./data/urunler.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "local", name)

	_, _, err = locator.Open(ctx, "s3://sheets/urunler.xlsx")
	assert.Error(t, err)

	locator.S3 = stubSource{name: "remote"}
	name, _, err = locator.Open(ctx, "s3://sheets/urunler.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "remote", name)
}
