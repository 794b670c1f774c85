package repository

import (
	"context"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const EtcdRootPrefix = "/moove/config/"

type EtcdInterface interface {
	clientv3.KV
	Close() error
}

// EtcdStore keeps each setting under /moove/config/<component>/<name>.
type EtcdStore struct {
	client EtcdInterface
}

func NewEtcdStore(client EtcdInterface) *EtcdStore {
	return &EtcdStore{client: client}
}

func BuildSettingKey(component, name string) string {
	return fmt.Sprintf("%s%s/%s", EtcdRootPrefix, component, name)
}

func componentPrefix(component string) string {
	return EtcdRootPrefix + component + "/"
}

func (s *EtcdStore) Get(ctx context.Context, component, name string) (string, bool, error) {
	resp, err := s.client.Get(ctx, BuildSettingKey(component, name))
	if err != nil {
		return "", false, fmt.Errorf("etcd get %s/%s: %w", component, name, err)
	}
	if len(resp.Kvs) == 0 {
		return "", false, nil
	}
	return string(resp.Kvs[0].Value), true, nil
}

func (s *EtcdStore) Set(ctx context.Context, component, name, value string) error {
	if _, err := s.client.Put(ctx, BuildSettingKey(component, name), value); err != nil {
		return fmt.Errorf("etcd put %s/%s: %w", component, name, err)
	}
	return nil
}

func (s *EtcdStore) Unset(ctx context.Context, component, name string) error {
	if _, err := s.client.Delete(ctx, BuildSettingKey(component, name)); err != nil {
		return fmt.Errorf("etcd delete %s/%s: %w", component, name, err)
	}
	return nil
}

func (s *EtcdStore) List(ctx context.Context, component string) (map[string]string, error) {
	prefix := componentPrefix(component)
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd list %s: %w", component, err)
	}
	res := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		name := strings.TrimPrefix(string(kv.Key), prefix)
		// nested keys belong to another component sharing this prefix
		if strings.Contains(name, "/") {
			continue
		}
		res[name] = string(kv.Value)
	}
	return res, nil
}

func (s *EtcdStore) Health(ctx context.Context) error {
	_, err := s.client.Get(ctx, "health_check")
	return err
}
