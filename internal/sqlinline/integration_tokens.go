package sqlinline

// QSelectIntegrationToken returns the stored token of a provider and the
// image model recorded with it.
const QSelectIntegrationToken = `--sql a046005b-9139-43dd-9d76-a22e29005c8b
select token,
       coalesce(properties->>'image_model', '') as image_model
from integration_tokens
where provider = $1::text
limit 1;
`

// QUpsertIntegrationToken stores or rotates the token of a provider.
const QUpsertIntegrationToken = `--sql 50463759-d565-4a98-b352-be83d2f1beaa
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`
