// Client for accessing the document-management backend, and the CLI built on it
package knclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"

	"github.com/function61/gokit/ezhttp"
	"github.com/function61/gokit/logex"
	"github.com/function61/knowledgesync/pkg/kntypes"
)

type Client struct {
	conf ClientConfig
	logl *logex.Leveled
}

func New(conf ClientConfig, logl *logex.Leveled) *Client {
	return &Client{conf, logl}
}

// which collection uploads get attached to. returned by PrepareCollection() instead of
// being remembered by the client.
type Session struct {
	CollectionID   string
	CollectionName string
}

// health probe. response body is ignored.
func (c *Client) GetUserSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ezhttp.DefaultTimeout10s)
	defer cancel()

	res, err := ezhttp.Get(
		ctx,
		c.conf.ApiPath("/auths/"),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.Client(c.conf.HttpClient()))
	if err != nil {
		return fmt.Errorf("GetUserSession: %w", err)
	}

	return res.Body.Close()
}

func (c *Client) ListCollections(ctx context.Context) ([]kntypes.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, ezhttp.DefaultTimeout10s)
	defer cancel()

	collections := []kntypes.Collection{}
	if _, err := ezhttp.Get(
		ctx,
		c.conf.ApiPath("/knowledge/list"),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.RespondsJson(&collections, true),
		ezhttp.Client(c.conf.HttpClient()),
	); err != nil {
		return nil, fmt.Errorf("ListCollections: %w", err)
	}

	return collections, nil
}

func (c *Client) CreateCollection(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ezhttp.DefaultTimeout10s)
	defer cancel()

	created := kntypes.CreatedRecord{}
	if _, err := ezhttp.Post(
		ctx,
		c.conf.ApiPath("/knowledge/create"),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.SendJson(&kntypes.CreateCollectionRequest{
			Name:        name,
			Description: "Collection of knowledges about " + name,
		}),
		ezhttp.RespondsJson(&created, true),
		ezhttp.Client(c.conf.HttpClient()),
	); err != nil {
		return "", fmt.Errorf("CreateCollection(%s): %w", name, err)
	}

	if created.ID == "" {
		return "", fmt.Errorf("CreateCollection(%s): backend returned no id", name)
	}

	c.logl.Info.Printf("knowledge collection %s created", name)

	return created.ID, nil
}

// reuses the first existing collection with the name, or creates it
func (c *Client) PrepareCollection(ctx context.Context, name string) (*Session, error) {
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	for _, collection := range collections {
		if collection.Name == name {
			c.logl.Info.Printf("collection %s already exists with ID %s", name, collection.ID)

			return &Session{CollectionID: collection.ID, CollectionName: name}, nil
		}
	}

	id, err := c.CreateCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	c.logl.Debug.Printf("knowledge ID of the collection: %s", id)

	return &Session{CollectionID: id, CollectionName: name}, nil
}

func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	body, contentType, err := multipartFileBody(path)
	if err != nil {
		return "", err
	}

	created := kntypes.CreatedRecord{}
	if _, err := ezhttp.Post(
		ctx,
		c.conf.ApiPath("/files/"),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.SendBody(body, contentType),
		ezhttp.RespondsJson(&created, true),
		ezhttp.Client(c.conf.HttpClient()),
	); err != nil {
		return "", fmt.Errorf("UploadFile(%s): %w", path, err)
	}

	if created.ID == "" {
		return "", fmt.Errorf("UploadFile(%s): backend returned no id", path)
	}

	return created.ID, nil
}

// one request per file. the first failure is fatal.
func (c *Client) UploadFiles(ctx context.Context, paths []string) ([]string, error) {
	c.logl.Info.Printf("start uploading files: %d", len(paths))

	fileIDs := []string{}

	for i, path := range paths {
		c.logl.Debug.Printf("uploading %s", path)

		id, err := c.UploadFile(ctx, path)
		if err != nil {
			return fileIDs, err
		}

		fileIDs = append(fileIDs, id)

		if i%10 == 9 {
			c.logl.Info.Printf("files uploaded: %d", i+1)
		}
	}

	c.logl.Debug.Printf("file ID list: %v", fileIDs)

	return fileIDs, nil
}

func (c *Client) AttachFile(ctx context.Context, session Session, fileID string) error {
	ctx, cancel := context.WithTimeout(ctx, ezhttp.DefaultTimeout10s)
	defer cancel()

	res, err := ezhttp.Post(
		ctx,
		c.conf.ApiPath("/knowledge/"+url.PathEscape(session.CollectionID)+"/file/add"),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.SendJson(&kntypes.AttachFileRequest{FileID: fileID}),
		ezhttp.Client(c.conf.HttpClient()))
	if err != nil {
		return fmt.Errorf("AttachFile(%s, %s): %w", session.CollectionID, fileID, err)
	}

	return res.Body.Close()
}

// one request per file. the backend's batch endpoint is not used.
func (c *Client) AttachFiles(ctx context.Context, session Session, fileIDs []string) error {
	for i, fileID := range fileIDs {
		if err := c.AttachFile(ctx, session, fileID); err != nil {
			return err
		}

		if i%10 == 9 {
			c.logl.Info.Printf("files added to the collection: %d", i+1)
		}
	}

	return nil
}

func (c *Client) ListFiles(ctx context.Context) ([]kntypes.RemoteFile, error) {
	ctx, cancel := context.WithTimeout(ctx, ezhttp.DefaultTimeout10s)
	defer cancel()

	files := []kntypes.RemoteFile{}
	if _, err := ezhttp.Get(
		ctx,
		c.conf.ApiPath("/files/"),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.RespondsJson(&files, true),
		ezhttp.Client(c.conf.HttpClient()),
	); err != nil {
		return nil, fmt.Errorf("ListFiles: %w", err)
	}

	return files, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, ezhttp.DefaultTimeout10s)
	defer cancel()

	res, err := ezhttp.Del(
		ctx,
		c.conf.ApiPath("/files/"+url.PathEscape(id)),
		ezhttp.AuthBearer(c.conf.AuthToken),
		ezhttp.Header("Accept", "application/json"),
		ezhttp.Client(c.conf.HttpClient()))
	if err != nil {
		return fmt.Errorf("DeleteFile(%s): %w", id, err)
	}

	return res.Body.Close()
}

// knowledge files are documents, so buffering the whole form is fine
func multipartFileBody(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}

	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}

	if err := form.Close(); err != nil {
		return nil, "", err
	}

	return body, form.FormDataContentType(), nil
}
